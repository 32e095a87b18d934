// Package vin implements VinResolver: a one-shot, disk-and-database
// cached VIN decode against NHTSA's public vPIC API.
package vin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/obdsentry/obdsentryd/internal/classify"
	"github.com/obdsentry/obdsentryd/internal/store"
)

const (
	defaultBaseURL = "https://vpic.nhtsa.dot.gov"
	requestTimeout = 30 * time.Second
	userAgent      = "obdsentryd/1.0"
)

// absent lists vPIC field values treated as "no data".
var absent = map[string]bool{"Not Applicable": true, "N/A": true, "": true}

// Resolver decodes a VIN, consulting the on-disk cache file and the Store
// before ever making a network call: it must not hit the external API
// unless an explicit refresh is requested.
type Resolver struct {
	client   *http.Client
	baseURL  string
	cacheDir string
	store    *store.Store
	logger   *slog.Logger
}

// New creates a Resolver. cacheDir holds one JSON cache file per VIN.
func New(cacheDir string, s *store.Store, logger *slog.Logger) *Resolver {
	return &Resolver{
		client:   &http.Client{Timeout: requestTimeout},
		baseURL:  defaultBaseURL,
		cacheDir: cacheDir,
		store:    s,
		logger:   logger,
	}
}

// Resolve returns VehicleInfo for vin, using the disk cache, then the
// Store, then falling through to the network only when neither has it
// or refresh is true.
func (r *Resolver) Resolve(ctx context.Context, vin string, refresh bool) (*store.VehicleInfo, error) {
	if !refresh {
		if info, err := r.readCacheFile(vin); err == nil && info != nil {
			return info, nil
		}

		if info, err := r.store.GetVehicleInfo(ctx, vin); err == nil && info != nil {
			return info, nil
		}
	}

	info, err := r.fetch(ctx, vin)
	if err != nil {
		return nil, err
	}

	if err := r.writeCacheFile(info); err != nil {
		r.logger.Warn("vin: writing disk cache failed", "vin", vin, "error", err)
	}

	if err := r.store.UpsertVehicleInfo(ctx, *info); err != nil {
		r.logger.Warn("vin: writing store cache failed", "vin", vin, "error", err)
	}

	return info, nil
}

type vpicResponse struct {
	Results []struct {
		Variable string `json:"Variable"`
		Value    string `json:"Value"`
	} `json:"Results"`
}

func (r *Resolver) fetch(ctx context.Context, vin string) (*store.VehicleInfo, error) {
	url := fmt.Sprintf("%s/api/vehicles/DecodeVinValues/%s?format=json", r.baseURL, vin)

	var body []byte

	backoff := retry.WithMaxRetries(1, retry.NewConstant(2*time.Second))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return fmt.Errorf("vin: building request: %w", err)
		}

		req.Header.Set("User-Agent", userAgent)

		resp, err := r.client.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("vin: requesting %s: %w", vin, err))
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return retry.RetryableError(fmt.Errorf("vin: %s returned %d", vin, resp.StatusCode))
		}

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("vin: %s returned %d", vin, resp.StatusCode)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("vin: reading response body: %w", err))
		}

		return nil
	})
	if err != nil {
		return nil, classify.New(classify.Retryable, err)
	}

	var parsed vpicResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, classify.New(classify.Data, fmt.Errorf("vin: decoding response for %s: %w", vin, err))
	}

	info := &store.VehicleInfo{VIN: vin, RawJSON: string(body)}

	for _, field := range parsed.Results {
		if absent[field.Value] {
			continue
		}

		switch field.Variable {
		case "Make":
			info.Make = field.Value
		case "Model":
			info.Model = field.Value
		case "Model Year":
			fmt.Sscanf(field.Value, "%d", &info.Year)
		}
	}

	return info, nil
}

func (r *Resolver) cacheFilePath(vin string) string {
	return filepath.Join(r.cacheDir, vin+".json")
}

func (r *Resolver) readCacheFile(vin string) (*store.VehicleInfo, error) {
	data, err := os.ReadFile(r.cacheFilePath(vin))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, err
	}

	var info store.VehicleInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}

	return &info, nil
}

func (r *Resolver) writeCacheFile(info *store.VehicleInfo) error {
	if err := os.MkdirAll(r.cacheDir, 0o755); err != nil {
		return fmt.Errorf("vin: creating cache dir: %w", err)
	}

	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("vin: marshaling cache entry: %w", err)
	}

	if err := os.WriteFile(r.cacheFilePath(info.VIN), data, 0o644); err != nil {
		return fmt.Errorf("vin: writing cache file: %w", err)
	}

	return nil
}
