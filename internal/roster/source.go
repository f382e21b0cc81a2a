package roster

import (
	"context"
	"fmt"
	"io"
	"os"
	"statcrawl/lib/telemetry"
	"strings"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
)

// Loader reads raw roster text from a file path, stdin ("-") or an http(s) URL.
type Loader struct {
	Stdin io.Reader
	Http  *resty.Client
}

func NewLoader(tel telemetry.API) Loader {
	tel = telemetry.NewScopedAPI("roster_source", tel)

	httpClient := resty.New()
	httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	httpClient.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	httpClient.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(httpClient, tel)

	return Loader{
		Stdin: os.Stdin,
		Http:  httpClient,
	}
}

func isURL(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

func (l Loader) Load(ctx context.Context, source string) (string, error) {
	switch {
	case source == "-":
		contents, err := io.ReadAll(l.Stdin)
		if err != nil {
			return "", fmt.Errorf("read roster from stdin: %w", err)
		}
		return string(contents), nil
	case isURL(source):
		res, err := l.Http.R().
			SetContext(ctx).
			Get(source)
		if err != nil {
			return "", fmt.Errorf("fetch roster: %w", err)
		}
		if res.IsError() {
			return "", fmt.Errorf("fetch roster: unexpected status %s", res.Status())
		}
		return res.String(), nil
	}

	contents, err := os.ReadFile(source)
	if err != nil {
		return "", fmt.Errorf("read roster: %w", err)
	}
	return string(contents), nil
}
