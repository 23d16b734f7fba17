package cbr

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"github.com/langowen/metals/internal/entities"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"
)

const (
	requestDateFormat = "02/01/2006"
	recordDateFormat  = "02.01.2006"
)

type HTTPClient struct {
	client  *http.Client
	baseURL string
	cookies string
}

// NewHTTPClient builds a client for the xml_metall endpoint. cookies is sent verbatim as
// the Cookie header; the site asks for it when it suspects a bot.
func NewHTTPClient(baseURL, cookies string) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{},
		baseURL: baseURL,
		cookies: cookies,
	}
}

type metall struct {
	XMLName xml.Name `xml:"Metall"`
	Records []record `xml:"Record"`
}

type record struct {
	Date string `xml:"Date,attr"`
	Code int    `xml:"Code,attr"`
	Buy  string `xml:"Buy"`
	Sell string `xml:"Sell"`
}

// FetchRates returns one record per date in [from, to], ordered by date.
func (c *HTTPClient) FetchRates(ctx context.Context, from, to time.Time) ([]entities.MetalRate, error) {
	const op = "cbr.FetchRates"

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	q := u.Query()
	q.Set("date_req1", from.Format(requestDateFormat))
	q.Set("date_req2", to.Format(requestDateFormat))
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%s: create request error: %w", op, err)
	}
	if c.cookies != "" {
		req.Header.Set("Cookie", c.cookies)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: api_client get error: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: bad status: %s", op, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: read body error: %w", op, err)
	}

	rates, err := parseRates(body)
	if err != nil {
		return nil, errors.Wrap(err, op)
	}

	return rates, nil
}

func parseRates(body []byte) ([]entities.MetalRate, error) {
	dec := xml.NewDecoder(bytes.NewReader(body))
	dec.CharsetReader = charsetReader

	var doc metall
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("xml decode error: %w", err)
	}

	byDate := make(map[string]*entities.MetalRate)

	for _, rec := range doc.Records {
		date, err := time.Parse(recordDateFormat, rec.Date)
		if err != nil {
			return nil, fmt.Errorf("record date %q: %w", rec.Date, err)
		}

		metal, err := entities.MetalByCode(rec.Code)
		if err != nil {
			slog.Debug("skipping record", "date", rec.Date, "code", rec.Code)
			continue
		}

		amount, err := parseAmount(rec.Sell)
		if err != nil {
			return nil, fmt.Errorf("%s on %s: %w", metal, rec.Date, err)
		}

		rate, ok := byDate[date.Format(entities.DateKeyFormat)]
		if !ok {
			r := entities.NewMetalRate(date)
			rate = &r
			byDate[r.DateKey] = rate
		}
		if err := rate.Set(metal, amount); err != nil {
			return nil, err
		}
	}

	rates := make([]entities.MetalRate, 0, len(byDate))
	for _, r := range byDate {
		rates = append(rates, *r)
	}
	slices.SortFunc(rates, func(a, b entities.MetalRate) int {
		return strings.Compare(a.DateKey, b.DateKey)
	})

	return rates, nil
}

// parseAmount reads a number written with a decimal comma, e.g. "4447,54".
func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	return decimal.NewFromString(s)
}

func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(label) {
	case "windows-1251", "cp1251":
		return charmap.Windows1251.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
