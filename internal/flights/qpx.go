package flights

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Harshitk-cp/skybot/internal/domain"
	"github.com/Harshitk-cp/skybot/internal/store"
)

const DefaultBaseURL = "https://www.googleapis.com/qpxExpress/v1/trips/search"

var (
	ErrMissingAPIKey  = errors.New("QPX_API_KEY is required for the qpx provider")
	ErrProviderStatus = errors.New("flight provider returned an error status")
)

type SliceRequest struct {
	Date        string `json:"date"`
	Origin      string `json:"origin"`
	Destination string `json:"destination"`
}

type Passengers struct {
	AdultCount int `json:"adultCount"`
}

type SearchRequest struct {
	Passengers Passengers     `json:"passengers"`
	Slice      []SliceRequest `json:"slice"`
}

// NewSearchRequest builds a one-way search for a single adult.
func NewSearchRequest(origin, destination, date string) SearchRequest {
	return SearchRequest{
		Passengers: Passengers{AdultCount: 1},
		Slice:      []SliceRequest{{Date: date, Origin: origin, Destination: destination}},
	}
}

type searchEnvelope struct {
	Request SearchRequest `json:"request"`
}

// CacheKey hashes the canonical JSON form of a request. encoding/json writes
// struct fields in declaration order, so equal requests hash equally.
func CacheKey(req SearchRequest) (string, error) {
	b, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}

// Client queries the QPX Express trip search API through a response cache.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	cache      domain.FlightCache
	logger     *zap.Logger
	group      singleflight.Group
}

func NewClient(apiKey, baseURL string, cache domain.FlightCache, logger *zap.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{},
		cache:      cache,
		logger:     logger,
	}, nil
}

// Search returns the raw provider response for req, from cache when possible.
// Concurrent identical searches share one provider call.
func (c *Client) Search(ctx context.Context, req SearchRequest) ([]byte, error) {
	key, err := CacheKey(req)
	if err != nil {
		return nil, err
	}

	cached, err := c.cache.Get(ctx, key)
	if err == nil {
		c.logger.Debug("flight cache hit", zap.String("key", key))
		return cached, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		c.logger.Warn("flight cache lookup failed", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		return c.fetch(ctx, key, req)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

func (c *Client) fetch(ctx context.Context, key string, req SearchRequest) ([]byte, error) {
	body, err := json.Marshal(searchEnvelope{Request: req})
	if err != nil {
		return nil, fmt.Errorf("encode search request: %w", err)
	}

	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse provider url: %w", err)
	}
	q := u.Query()
	q.Set("fields", "kind,trips")
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", ErrProviderStatus, resp.StatusCode, string(respBody))
	}

	reqJSON, _ := json.Marshal(req)
	if err := c.cache.Put(ctx, key, reqJSON, respBody); err != nil {
		c.logger.Warn("failed to cache flight response", zap.String("key", key), zap.Error(err))
	}
	return respBody, nil
}

type qpxLeg struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureTime string `json:"departureTime"`
	ArrivalTime   string `json:"arrivalTime"`
	Duration      int    `json:"duration"`
	Aircraft      string `json:"aircraft"`
	Mileage       int    `json:"mileage"`
}

type qpxSegment struct {
	Cabin              string       `json:"cabin"`
	Duration           int          `json:"duration"`
	BookingCode        string       `json:"bookingCode"`
	BookingCodeCount   int          `json:"bookingCodeCount"`
	Flight             FlightNumber `json:"flight"`
	ConnectionDuration int          `json:"connectionDuration"`
	Leg                []qpxLeg     `json:"leg"`
}

type qpxSlice struct {
	Duration int          `json:"duration"`
	Segment  []qpxSegment `json:"segment"`
}

type qpxResponse struct {
	Trips struct {
		TripOption []struct {
			SaleTotal string     `json:"saleTotal"`
			Slice     []qpxSlice `json:"slice"`
		} `json:"tripOption"`
	} `json:"trips"`
}

// Extract converts a QPX search response into flights. Trip options without
// slices are skipped.
func Extract(raw []byte) ([]Flight, error) {
	var resp qpxResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	flights := make([]Flight, 0, len(resp.Trips.TripOption))
	for _, opt := range resp.Trips.TripOption {
		if len(opt.Slice) == 0 {
			continue
		}
		f := Flight{Price: opt.SaleTotal}
		for _, s := range opt.Slice {
			slice := Slice{Duration: s.Duration}
			for _, seg := range s.Segment {
				out := Segment{
					Cabin:              seg.Cabin,
					Duration:           seg.Duration,
					BookingCode:        seg.BookingCode,
					BookingCodeCount:   seg.BookingCodeCount,
					Flight:             seg.Flight,
					ConnectionDuration: seg.ConnectionDuration,
				}
				for _, l := range seg.Leg {
					out.Legs = append(out.Legs, Leg(l))
				}
				slice.Segments = append(slice.Segments, out)
			}
			f.Slices = append(f.Slices, slice)
		}
		f.Derive()
		flights = append(flights, f)
	}
	return flights, nil
}
