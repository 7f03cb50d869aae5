// Package github is a minimal wrapper around the GitHub endpoints the
// indexer needs: branch archives, raw file content and license
// metadata. It is intentionally light—just the calls our services
// require.
package github

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"repoquery/internal/models"
)

// Client talks to GitHub over plain HTTP.
type Client struct {
	http        *http.Client
	token       string
	apiBase     string
	archiveBase string
	rawBase     string
}

// NewClient returns a ready-to-use GitHub client.
// token may be an empty string, but you will be subject to very low rate-limits.
func NewClient(token string) *Client {
	return &Client{
		http: &http.Client{
			Timeout: 60 * time.Second,
		},
		token:       token,
		apiBase:     "https://api.github.com",
		archiveBase: "https://github.com",
		rawBase:     "https://raw.githubusercontent.com",
	}
}

// NewClientWithHosts builds a client against alternative hosts.
// Used by tests to point at an httptest server.
func NewClientWithHosts(token, apiBase, archiveBase, rawBase string) *Client {
	c := NewClient(token)
	c.apiBase = apiBase
	c.archiveBase = archiveBase
	c.rawBase = rawBase
	return c
}

// RepoFiles downloads the branch archive and extracts every indexable
// UTF-8 text file. The archive's top-level directory ("name-branch/")
// is stripped from paths.
func (c *Client) RepoFiles(ctx context.Context, repo models.Repository) ([]models.SourceFile, error) {
	u := fmt.Sprintf("%s/%s/%s/archive/%s.zip",
		c.archiveBase, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(repo.Branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	c.addHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("github: archive download failed with status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	archive, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, fmt.Errorf("github: reading archive: %w", err)
	}

	var files []models.SourceFile
	for _, f := range archive.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Strip the "<name>-<branch>/" prefix GitHub adds to archives.
		_, path, found := strings.Cut(f.Name, "/")
		if !found || path == "" || !ShouldIndex(path) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		// Binary files fail the UTF-8 check and are skipped.
		if err != nil || !utf8.Valid(content) {
			continue
		}

		files = append(files, models.SourceFile{Path: path, Content: string(content)})
	}
	return files, nil
}

// FileContent fetches a single file's raw content at the given branch.
func (c *Client) FileContent(ctx context.Context, repo models.Repository, path string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s/%s/%s",
		c.rawBase, url.PathEscape(repo.Owner), url.PathEscape(repo.Name), url.PathEscape(repo.Branch), path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", err
	}
	c.addHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("github: fetching %s failed with status %s", path, resp.Status)
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// LicenseInfo describes whether a repository's license permits indexing.
type LicenseInfo struct {
	Permissible bool   `json:"permissible"`
	Name        string `json:"name,omitempty"`
	URL         string `json:"url,omitempty"`
}

// LicenseInfo fetches the repository license and checks it against the
// permissive-license allowlist.
func (c *Client) LicenseInfo(ctx context.Context, repo models.Repository) (LicenseInfo, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/license",
		c.apiBase, url.PathEscape(repo.Owner), url.PathEscape(repo.Name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return LicenseInfo{}, err
	}
	c.addHeaders(req)

	var payload struct {
		HTMLURL string `json:"html_url"`
		License struct {
			Key  string `json:"key"`
			Name string `json:"name"`
		} `json:"license"`
	}
	if err := c.do(req, &payload); err != nil {
		return LicenseInfo{}, fmt.Errorf("github: unable to fetch repository license: %w", err)
	}

	info := LicenseInfo{Name: payload.License.Name, URL: payload.HTMLURL}
	for _, key := range allowedLicenses {
		if key == payload.License.Key {
			info.Permissible = true
			break
		}
	}
	return info, nil
}

// addHeaders sets authentication and Accept headers.
func (c *Client) addHeaders(req *http.Request) {
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("User-Agent", "repoquery")
}

// do executes the HTTP request and decodes JSON into v.
func (c *Client) do(req *http.Request, v interface{}) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("github: unexpected status %s", resp.Status)
	}

	return json.NewDecoder(resp.Body).Decode(v)
}
