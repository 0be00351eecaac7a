package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"slices"
	"strings"

	"eurorates/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const maxBodyBytes = 32 << 20

// Series describes how the provider names one currency's daily series,
// e.g. BBEX3.D.USD.EUR.BB.AC.000 is Prefix.Frequency.<CODE>.Base.Suffix.
type Series struct {
	Prefix    string
	Frequency string
	Base      string
	Suffix    string
}

func (s Series) key(code string) string {
	return s.Frequency + "." + code + "." + s.Base + "." + s.Suffix
}

func (s Series) keyPattern() *regexp.Regexp {
	return regexp.MustCompile(
		`^` + regexp.QuoteMeta(s.Prefix+"."+s.Frequency+".") + `(\w{3})` + regexp.QuoteMeta("."+s.Base+"."+s.Suffix) + `$`,
	)
}

type BundesbankClient struct {
	http    *http.Client
	baseURL string
	series  Series
	keyRe   *regexp.Regexp
	maxBody int64
}

func NewBundesbankClient(httpClient *http.Client, baseURL string, series Series) *BundesbankClient {
	return &BundesbankClient{
		http:    httpClient,
		baseURL: baseURL,
		series:  series,
		keyRe:   series.keyPattern(),
		maxBody: maxBodyBytes,
	}
}

// FetchRates downloads the daily series of currency against the base currency.
func (c *BundesbankClient) FetchRates(ctx context.Context, currency string) ([]domain.SourceRate, error) {
	query := url.Values{}
	query.Set("format", "csv")
	query.Set("lang", "en")
	query.Set("detail", "dataonly")

	body, err := c.get(ctx, c.series.key(currency), query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch rates for currency %q: %w", currency, err)
	}
	rates := parseRates(body)
	logrus.WithField("currency", currency).Debugf("Parsed %d rates from provider payload", len(rates))
	return rates, nil
}

// FetchCurrencyCodes downloads the series key listing of all currencies quoted against the base.
func (c *BundesbankClient) FetchCurrencyCodes(ctx context.Context) ([]string, error) {
	query := url.Values{}
	query.Set("detail", "serieskeyonly")
	query.Set("format", "csv")

	body, err := c.get(ctx, c.series.key(""), query)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch currency keys: %w", err)
	}
	return parseCurrencyCodes(body, c.keyRe), nil
}

func (c *BundesbankClient) get(ctx context.Context, seriesKey string, query url.Values) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("failed to parse base URL: %w", err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/data/" + c.series.Prefix + "/" + seriesKey
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, resp.Status)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(raw)) > c.maxBody {
		return "", fmt.Errorf("response body exceeds %d bytes", c.maxBody)
	}
	return string(raw), nil
}

// parseRates extracts (date, rate) pairs from a dataonly CSV payload.
// Malformed, commented and not-available lines are skipped one by one.
func parseRates(body string) []domain.SourceRate {
	lines := strings.Split(body, "\n")
	if len(lines) <= 2 {
		return []domain.SourceRate{}
	}

	rates := make([]domain.SourceRate, 0, len(lines)-2)
	for _, raw := range lines[2:] { // header and last update lines
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		parts := strings.Split(line, ",")
		if len(parts) < 2 {
			continue
		}
		if parts[0] == `""` || strings.Contains(parts[0], "Comment") {
			logrus.Debugf("Skipping comment line: %s", line)
			continue
		}

		dateStr := strings.TrimSpace(strings.ReplaceAll(parts[0], `"`, ""))
		rateStr := strings.TrimSpace(strings.ReplaceAll(parts[1], `"`, ""))
		if rateStr == "." {
			continue
		}

		date, err := domain.ParseDate(dateStr)
		if err != nil {
			logrus.Debugf("Skipping invalid date format: %s", dateStr)
			continue
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			logrus.Debugf("Skipping invalid rate format: %s", rateStr)
			continue
		}
		rates = append(rates, domain.SourceRate{Date: date, Rate: rate})
	}
	return rates
}

// parseCurrencyCodes collects unique codes from the series keys in the first CSV line.
// Companion "_FLAGS" series are ignored.
func parseCurrencyCodes(body string, keyRe *regexp.Regexp) []string {
	header, _, _ := strings.Cut(body, "\n")

	set := make(map[string]struct{})
	for _, field := range strings.Split(header, ",") {
		key := strings.TrimSpace(strings.Trim(strings.TrimSpace(field), `"`))
		if key == "" || strings.HasSuffix(key, "_FLAGS") {
			continue
		}
		m := keyRe.FindStringSubmatch(key)
		if m == nil || !domain.IsCurrencyCode(m[1]) {
			continue
		}
		set[m[1]] = struct{}{}
	}

	codes := make([]string, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	slices.Sort(codes)
	return codes
}
