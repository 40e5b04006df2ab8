package translate

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	awstranslate "github.com/aws/aws-sdk-go-v2/service/translate"
)

// awsTranslateAPI is the slice of the AWS Translate client used here.
type awsTranslateAPI interface {
	TranslateText(ctx context.Context, in *awstranslate.TranslateTextInput, optFns ...func(*awstranslate.Options)) (*awstranslate.TranslateTextOutput, error)
}

type awsTranslator struct {
	api  awsTranslateAPI
	lang string
}

func (a *awsTranslator) Translate(ctx context.Context, text string) (string, error) {
	out, err := a.api.TranslateText(ctx, &awstranslate.TranslateTextInput{
		SourceLanguageCode: aws.String("auto"),
		TargetLanguageCode: aws.String(a.lang),
		Text:               aws.String(text),
	})
	if err != nil {
		return "", fmt.Errorf("aws translate: %w", err)
	}
	if out.TranslatedText == nil {
		return "", errors.New("aws translate: empty response")
	}
	return *out.TranslatedText, nil
}

// newAWSClient loads the default AWS config and checks that credentials resolve.
func newAWSClient(ctx context.Context, region string) (awsTranslateAPI, error) {
	var opts []func(*awscfg.LoadOptions) error
	if region != "" {
		opts = append(opts, awscfg.WithRegion(region))
	}
	cfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	if cfg.Region == "" {
		return nil, errors.New("aws region not configured")
	}
	if _, err := cfg.Credentials.Retrieve(ctx); err != nil {
		return nil, fmt.Errorf("retrieve aws credentials: %w", err)
	}
	return awstranslate.NewFromConfig(cfg), nil
}
