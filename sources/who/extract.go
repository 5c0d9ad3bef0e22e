package who

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/KarimJebara/WHO-global-health-early-warning-index/misc"
	"github.com/KarimJebara/WHO-global-health-early-warning-index/utils/logger"
	jsoniter "github.com/json-iterator/go"
)

const (
	defaultPageSize = 1000
	defaultTimeout  = 30 * time.Second

	userAgent = "KarimJebara-WHO-ETL/1.0 (+local project)"
)

var jsonFast = jsoniter.ConfigCompatibleWithStandardLibrary

type HandleT struct {
	Config SourceConfigT
	Client *http.Client
}

func (handle *HandleT) Setup(config SourceConfigT) error {
	err := misc.SanitizeIndicator(config.Indicator)
	if err != nil {
		return err
	}
	if config.PageSize <= 0 {
		config.PageSize = defaultPageSize
	}
	if config.Timeout <= 0 {
		config.Timeout = defaultTimeout
	}
	handle.Config = config
	handle.Client = &http.Client{Timeout: config.Timeout}
	return nil
}

// GHO pagination uses OData $top and $skip.
func (handle *HandleT) buildURL(skip, top int) string {
	queryParams := url.Values{}
	queryParams.Add("$format", "json")
	queryParams.Add("$top", strconv.Itoa(top))
	queryParams.Add("$skip", strconv.Itoa(skip))
	if handle.Config.Select != "" {
		queryParams.Add("$select", handle.Config.Select)
	}
	if handle.Config.Filter != "" {
		queryParams.Add("$filter", handle.Config.Filter)
	}
	return handle.Config.BaseURL + "/" + handle.Config.Indicator + "?" + queryParams.Encode()
}

func (handle *HandleT) fetchPage(skip, top int) ([]json.RawMessage, error) {
	pageURL := handle.buildURL(skip, top)
	req, err := http.NewRequest("GET", pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("User-Agent", userAgent)
	req.Header.Add("Accept", "application/json")

	logger.Debug(fmt.Sprintf("Making GET request to %v", pageURL))
	resp, err := handle.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GHO API request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading GHO API response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from GHO API: %s", resp.StatusCode, misc.ExcerptStr(string(body), 500))
	}

	var envelope envelopeT
	err = jsonFast.Unmarshal(body, &envelope)
	if err != nil {
		return nil, fmt.Errorf("failed parsing GHO API response: %w", err)
	}
	return envelope.Value, nil
}

// ExtractAll walks every page for the configured indicator and hands each
// record to emit in API order. It stops on the first empty page or once
// MaxRows records have been seen, and returns the number of records
// emitted. An emit error aborts the walk.
func (handle *HandleT) ExtractAll(emit func(record json.RawMessage) error) (int, error) {
	fetched := 0
	skip := 0

	for {
		top := handle.Config.PageSize
		if handle.Config.MaxRows > 0 {
			remaining := handle.Config.MaxRows - fetched
			if remaining <= 0 {
				return fetched, nil
			}
			if top > remaining {
				top = remaining
			}
		}

		rows, err := handle.fetchPage(skip, top)
		if err != nil {
			return fetched, err
		}
		if len(rows) == 0 {
			return fetched, nil
		}

		for _, row := range rows {
			err := emit(row)
			if err != nil {
				return fetched, err
			}
			fetched++
		}
		skip += len(rows)

		if handle.Config.SleepBetweenPages > 0 {
			time.Sleep(handle.Config.SleepBetweenPages)
		}
	}
}
