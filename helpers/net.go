package helpers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/Jeffail/gabs"
	"github.com/pkg/errors"
	"github.com/pretend-bot/pretend/version"
	"github.com/sethgrid/pester"
)

var DEFAULT_UA = "Pretend/" + version.BOT_VERSION + " (+https://github.com/pretend-bot/pretend)"

// ErrNotFound is returned by the Net* helpers for 404 responses
var ErrNotFound = errors.New("remote returned 404")

func newNetClient(timeout time.Duration) *pester.Client {
	client := pester.NewExtendedClient(&http.Client{Timeout: timeout})
	client.MaxRetries = 2
	client.Backoff = pester.ExponentialBackoff
	client.KeepLog = false
	return client
}

// NetGetContext performs a GET request bound to $ctx, $headers are added to the request
func NetGetContext(ctx context.Context, url string, useragent string, timeout time.Duration, headers map[string]string) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	request.Header.Set("User-Agent", useragent)
	for key, value := range headers {
		request.Header.Set(key, value)
	}

	response, err := newNetClient(timeout).Do(request)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if response.StatusCode != http.StatusOK {
		return nil, errors.New("expected status 200; got " + strconv.Itoa(response.StatusCode))
	}

	buf := bytes.NewBuffer(nil)
	_, err = io.Copy(buf, response.Body)
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// NetGetLimited downloads at most $limit bytes, tooLarge is true if the body exceeded it
func NetGetLimited(ctx context.Context, url string, limit int64) (data []byte, tooLarge bool, err error) {
	request, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, false, err
	}
	request.Header.Set("User-Agent", DEFAULT_UA)

	response, err := newNetClient(60 * time.Second).Do(request)
	if err != nil {
		return nil, false, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, false, errors.New("expected status 200; got " + strconv.Itoa(response.StatusCode))
	}
	if response.ContentLength > limit {
		return nil, true, nil
	}

	data, err = io.ReadAll(io.LimitReader(response.Body, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return nil, true, nil
	}
	return data, false, nil
}

// GetJSON fetches $url and parses the response with gabs
func GetJSON(ctx context.Context, url string, headers map[string]string) (*gabs.Container, error) {
	data, err := NetGetContext(ctx, url, DEFAULT_UA, 15*time.Second, headers)
	if err != nil {
		return nil, err
	}
	return gabs.ParseJSON(data)
}
