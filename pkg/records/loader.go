package records

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrProfileNotFound is returned by providers that have no records for a profile.
var ErrProfileNotFound = errors.New("profile not found")

// Provider supplies the record bundle for one profile.
type Provider interface {
	Bundle(ctx context.Context, profileID string) (bundle Bundle, err error)
}

// Load reads a record bundle from a file path or http(s) URL.
func Load(input string) (bundle Bundle, err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	bundle, err = LoadWithContext(ctx, input)
	return bundle, err
}

// LoadWithContext reads a record bundle with context.
func LoadWithContext(ctx context.Context, input string) (bundle Bundle, err error) {
	var data []byte

	parsedURL, urlErr := url.Parse(input)
	if urlErr == nil && (parsedURL.Scheme == "http" || parsedURL.Scheme == "https") {
		data, err = fetchFromURL(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch records from URL: %s", input)
			return bundle, err
		}
	} else {
		data, err = readFile(input)
		if err != nil {
			err = errors.Wrapf(err, "failed to read records from file: %s", input)
			return bundle, err
		}
	}

	bundle, err = Decode(data)
	if err != nil {
		err = errors.Wrapf(err, "invalid record bundle: %s", input)
		return bundle, err
	}

	return bundle, err
}

// Decode parses and validates a JSON record bundle.
func Decode(data []byte) (bundle Bundle, err error) {
	err = json.Unmarshal(data, &bundle)
	if err != nil {
		err = errors.Wrap(err, "failed to parse records JSON")
		return bundle, err
	}

	err = bundle.Validate()
	if err != nil {
		err = errors.Wrap(err, "records validation failed")
		return bundle, err
	}

	return bundle, err
}

// Validate checks that the bundle carries an identifiable profile.
// Per-record optional fields are never validated here.
func (b *Bundle) Validate() (err error) {
	if b.Profile == nil {
		err = errors.Wrap(ErrProfileNotFound, "profile is required")
		return err
	}

	if b.Profile.DisplayName() == "" {
		err = errors.Wrap(ErrProfileNotFound, "profile needs a full_name or id")
		return err
	}

	for i, pub := range b.Publications {
		if pub.Kind == "" {
			b.Publications[i].Kind = KindArticle
		}
	}

	for i, pub := range b.Books {
		if pub.Kind == "" {
			b.Books[i].Kind = KindBook
		}
	}

	return err
}

func readFile(path string) (data []byte, err error) {
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read file: %s", path)
		return data, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		err = errors.New("file is empty")
		return data, err
	}

	return data, err
}

func fetchFromURL(ctx context.Context, urlStr string) (data []byte, err error) {
	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return data, err
	}

	req.Header.Set("User-Agent", "academic-cv/1.0")
	req.Header.Set("Accept", "application/json")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	var resp *http.Response
	resp, err = client.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return data, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		err = ErrProfileNotFound
		return data, err
	}

	if resp.StatusCode != http.StatusOK {
		err = errors.Errorf("HTTP request failed with status: %d", resp.StatusCode)
		return data, err
	}

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return data, err
	}

	if len(data) == 0 {
		err = errors.New("fetched content is empty")
		return data, err
	}

	return data, err
}
