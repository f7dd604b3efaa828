package transport

import (
	"bufio"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

const httpOnlyPrefix = "#HttpOnly_"

// FileJar is an http.CookieJar persisted in the Netscape cookie-file format.
// Access to the underlying files is not coordinated across processes.
type FileJar struct {
	jar *cookiejar.Jar

	mu      sync.Mutex
	entries map[string]*cookieEntry
}

type cookieEntry struct {
	domain     string
	subdomains bool
	path       string
	secure     bool
	httpOnly   bool
	expires    time.Time
	name       string
	value      string
}

func (e *cookieEntry) key() string {
	return e.domain + "\x00" + e.path + "\x00" + e.name
}

// NewFileJar creates an empty jar.
func NewFileJar() (*FileJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &FileJar{jar: jar, entries: make(map[string]*cookieEntry)}, nil
}

// LoadFileJar creates a jar seeded from path. A missing file yields an empty jar.
func LoadFileJar(path string) (*FileJar, error) {
	j, err := NewFileJar()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return j, nil
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return j, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open cookie file: %w", err)
	}
	defer f.Close()

	now := time.Now()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		e, ok := parseCookieLine(scanner.Text())
		if !ok || (!e.expires.IsZero() && e.expires.Before(now)) {
			continue
		}
		j.add(e)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}
	return j, nil
}

func parseCookieLine(line string) (*cookieEntry, bool) {
	httpOnly := false
	if strings.HasPrefix(line, httpOnlyPrefix) {
		httpOnly = true
		line = strings.TrimPrefix(line, httpOnlyPrefix)
	}
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil, false
	}
	fields := strings.Split(line, "\t")
	if len(fields) < 7 {
		return nil, false
	}
	e := &cookieEntry{
		domain:     fields[0],
		subdomains: strings.EqualFold(fields[1], "TRUE"),
		path:       fields[2],
		secure:     strings.EqualFold(fields[3], "TRUE"),
		httpOnly:   httpOnly,
		name:       fields[5],
		value:      fields[6],
	}
	if ts, err := strconv.ParseInt(fields[4], 10, 64); err == nil && ts > 0 {
		e.expires = time.Unix(ts, 0)
	}
	return e, true
}

// add seeds the inner jar with an entry read from disk.
func (j *FileJar) add(e *cookieEntry) {
	host := strings.TrimPrefix(e.domain, ".")
	scheme := "http"
	if e.secure {
		scheme = "https"
	}
	c := &http.Cookie{
		Name:     e.name,
		Value:    e.value,
		Path:     e.path,
		Secure:   e.secure,
		HttpOnly: e.httpOnly,
		Expires:  e.expires,
	}
	if e.subdomains {
		c.Domain = host
	}
	j.jar.SetCookies(&url.URL{Scheme: scheme, Host: host, Path: e.path}, []*http.Cookie{c})

	j.mu.Lock()
	j.entries[e.key()] = e
	j.mu.Unlock()
}

// SetCookies implements http.CookieJar.
func (j *FileJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)

	now := time.Now()
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, c := range cookies {
		e := &cookieEntry{
			domain:   u.Hostname(),
			path:     c.Path,
			secure:   c.Secure,
			httpOnly: c.HttpOnly,
			name:     c.Name,
			value:    c.Value,
		}
		if c.Domain != "" {
			e.domain = "." + strings.TrimPrefix(c.Domain, ".")
			e.subdomains = true
		}
		if e.path == "" || !strings.HasPrefix(e.path, "/") {
			e.path = defaultCookiePath(u.Path)
		}
		switch {
		case c.MaxAge > 0:
			e.expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		case !c.Expires.IsZero():
			e.expires = c.Expires
		}
		if c.MaxAge < 0 || (!e.expires.IsZero() && e.expires.Before(now)) {
			delete(j.entries, e.key())
			continue
		}
		j.entries[e.key()] = e
	}
}

// Cookies implements http.CookieJar.
func (j *FileJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// Len returns the number of stored cookies.
func (j *FileJar) Len() int {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.entries)
}

// Save writes every unexpired cookie to path.
func (j *FileJar) Save(path string) error {
	j.mu.Lock()
	entries := make([]*cookieEntry, 0, len(j.entries))
	now := time.Now()
	for _, e := range j.entries {
		if e.expires.IsZero() || e.expires.After(now) {
			entries = append(entries, e)
		}
	}
	j.mu.Unlock()

	sort.Slice(entries, func(a, b int) bool {
		return entries[a].key() < entries[b].key()
	})

	var b strings.Builder
	b.WriteString("# Netscape HTTP Cookie File\n\n")
	for _, e := range entries {
		if e.httpOnly {
			b.WriteString(httpOnlyPrefix)
		}
		var expires int64
		if !e.expires.IsZero() {
			expires = e.expires.Unix()
		}
		fmt.Fprintf(&b, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			e.domain, boolField(e.subdomains), e.path, boolField(e.secure), expires, e.name, e.value)
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create cookie dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write cookie jar: %w", err)
	}
	return nil
}

func boolField(v bool) string {
	if v {
		return "TRUE"
	}
	return "FALSE"
}

func defaultCookiePath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}
