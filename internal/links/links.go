// Package links проверяет внешние ссылки контактов по списку разрешенных хостов.
package links

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

var (
	// ErrInvalidLink возвращается для ссылок, которые не являются http(s) URL
	ErrInvalidLink = errors.New("invalid link")

	// ErrHostNotAllowed возвращается для хостов вне списка разрешенных
	ErrHostNotAllowed = errors.New("link host is not allowed")
)

// DefaultHosts всегда разрешены
var DefaultHosts = []string{"t.me", "telegram.me"}

// AllowList - список разрешенных хостов для перехода по ссылке
type AllowList struct {
	hosts map[string]struct{}
}

// NewAllowList создает список из хостов по умолчанию и дополнительных доменов
func NewAllowList(extra []string) *AllowList {
	a := &AllowList{hosts: make(map[string]struct{})}
	for _, host := range append(append([]string{}, DefaultHosts...), extra...) {
		host = strings.ToLower(strings.TrimSpace(host))
		if host != "" {
			a.hosts[host] = struct{}{}
		}
	}
	return a
}

// Check разбирает ссылку и проверяет схему и хост.
// Возвращает нормализованный URL, пригодный для редиректа.
func (a *AllowList) Check(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidLink)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidLink, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidLink, u.Scheme)
	}
	if u.User != nil {
		return nil, fmt.Errorf("%w: credentials in link", ErrInvalidLink)
	}

	host := strings.ToLower(u.Hostname())
	if _, ok := a.hosts[host]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrHostNotAllowed, host)
	}
	return u, nil
}

// Allowed сообщает, можно ли открыть ссылку
func (a *AllowList) Allowed(raw string) bool {
	_, err := a.Check(raw)
	return err == nil
}

// Hosts возвращает отсортированный список разрешенных хостов
func (a *AllowList) Hosts() []string {
	hosts := make([]string, 0, len(a.hosts))
	for host := range a.hosts {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}
