// Package viaggiatreno fetches raw train status payloads from the
// ViaggiaTreno REST API.
package viaggiatreno

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	"github.com/travigo/treni/pkg/ctdf"
	"github.com/travigo/treni/pkg/util"
	"golang.org/x/net/html/charset"
)

const DefaultBaseURL = "http://www.viaggiatreno.it/infomobilita/resteasy/viaggiatreno"

type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Backoff returns the retry policy of a single request
	Backoff func() backoff.BackOff
}

func NewClient() *Client {
	env := util.GetEnvironmentVariables()

	baseURL := env["TRENI_VIAGGIATRENO_URL"]
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		Backoff: func() backoff.BackOff {
			retryBackoff := backoff.NewExponentialBackOff()
			retryBackoff.InitialInterval = 500 * time.Millisecond
			retryBackoff.MaxElapsedTime = 10 * time.Second

			return backoff.WithMaxRetries(retryBackoff, 3)
		},
	}
}

// Fetch returns the payload describing a run together with the selection
// context it was fetched with. A number matching several runs without a
// choice returns the lookup payload itself, which adapts to a selection.
func (c *Client) Fetch(ctx context.Context, number string, selection ctdf.SelectionContext) ([]byte, ctdf.SelectionContext, error) {
	selection = selection.Resolved()
	number = strings.TrimSpace(number)
	if number == "" {
		number, _, _ = ctdf.ParseTechnicalID(selection.TechnicalID)
	}

	if selection.OriginCode != "" && selection.ReferenceTimestampMs != nil {
		payload, err := c.Andamento(ctx, selection.OriginCode, number, *selection.ReferenceTimestampMs)
		return payload, selection, err
	}

	lookup, err := c.Autocomplete(ctx, number)
	if err != nil {
		return nil, selection, err
	}

	runs := parseRuns(lookup)
	index := chooseRun(runs, selection)
	if index == -1 {
		return lookup, selection, nil
	}

	chosen := runs[index]
	if selection.Choice == nil {
		selection.Choice = &index
	}
	selection.TechnicalID = chosen.technicalID
	selection.OriginCode = chosen.originCode
	selection.ReferenceTimestampMs = chosen.timestamp

	if chosen.timestamp == nil {
		return nil, selection, &ctdf.TransportError{
			Op:  "andamentoTreno",
			Err: fmt.Errorf("run %s has no reference timestamp", chosen.technicalID),
		}
	}

	payload, err := c.Andamento(ctx, chosen.originCode, number, *chosen.timestamp)
	return payload, selection, err
}

func (c *Client) Autocomplete(ctx context.Context, number string) ([]byte, error) {
	return c.get(ctx, "cercaNumeroTrenoTrenoAutocomplete", url.PathEscape(number))
}

func (c *Client) Andamento(ctx context.Context, originCode string, number string, timestampMs int64) ([]byte, error) {
	return c.get(ctx, "andamentoTreno", url.PathEscape(originCode), url.PathEscape(number), fmt.Sprint(timestampMs))
}

type run struct {
	technicalID string
	originCode  string
	timestamp   *int64
}

// parseRuns reads the "LABEL|NUMBER-ORIGIN-TIMESTAMP" lines of a lookup.
func parseRuns(lookup []byte) []run {
	var runs []run

	for _, line := range strings.Split(string(lookup), "\n") {
		_, technicalID, found := strings.Cut(strings.TrimSpace(line), "|")
		if !found {
			continue
		}

		technicalID = strings.TrimSpace(technicalID)
		_, originCode, timestamp := ctdf.ParseTechnicalID(technicalID)

		runs = append(runs, run{
			technicalID: technicalID,
			originCode:  strings.ToUpper(originCode),
			timestamp:   timestamp,
		})
	}

	return runs
}

// chooseRun picks the run to follow from a lookup, or -1 when the user
// has to choose.
func chooseRun(runs []run, selection ctdf.SelectionContext) int {
	if selection.Choice != nil && *selection.Choice >= 0 && *selection.Choice < len(runs) {
		return *selection.Choice
	}

	if selection.OriginCode != "" {
		for i, candidate := range runs {
			if strings.EqualFold(candidate.originCode, selection.OriginCode) {
				return i
			}
		}
	}

	if len(runs) == 1 {
		return 0
	}

	return -1
}

func (c *Client) get(ctx context.Context, operation string, parts ...string) ([]byte, error) {
	requestURL := strings.Join(append([]string{c.BaseURL, operation}, parts...), "/")

	var body []byte
	attempt := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", "treni/1.0")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			return fmt.Errorf("status code %d", resp.StatusCode)
		} else if resp.StatusCode == http.StatusNoContent {
			body = nil
			return nil
		} else if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("status code %d", resp.StatusCode))
		}

		reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
		if err != nil {
			return backoff.Permanent(err)
		}

		body, err = io.ReadAll(reader)
		return err
	}

	policy := c.Backoff
	if policy == nil {
		policy = func() backoff.BackOff { return &backoff.StopBackOff{} }
	}

	err := backoff.RetryNotify(attempt, backoff.WithContext(policy(), ctx), func(err error, wait time.Duration) {
		log.Debug().Err(err).Str("operation", operation).Dur("wait", wait).Msg("Retrying ViaggiaTreno request")
	})
	if err != nil {
		if ctx.Err() != nil && !errors.Is(err, ctx.Err()) {
			err = ctx.Err()
		}

		return nil, &ctdf.TransportError{Op: operation, Err: err}
	}

	return body, nil
}
