// SPDX-License-Identifier: Apache-2.0

package postgres

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
)

var (
	errInvalidURL       = errors.New("invalid URL")
	ErrInvalidTableName = errors.New("invalid table name")
)

func QuoteIdentifier(s string) string {
	if IsQuotedIdentifier(s) {
		return s
	}
	return pq.QuoteIdentifier(s)
}

func IsQuotedIdentifier(s string) bool {
	return len(s) > 2 && strings.HasPrefix(s, `"`) && strings.HasSuffix(s, `"`)
}

// QuoteTableName returns the sanitized, optionally schema qualified, table
// name.
func QuoteTableName(tableName string) (string, error) {
	identifier, err := newIdentifier(tableName)
	if err != nil {
		return "", err
	}
	return identifier.Sanitize(), nil
}

func newIdentifier(tableName string) (pgx.Identifier, error) {
	var identifier pgx.Identifier
	qualifiedTableName := strings.Split(tableName, ".")
	switch len(qualifiedTableName) {
	case 1:
		identifier = pgx.Identifier{tableName}
	case 2:
		identifier = pgx.Identifier{qualifiedTableName[0], qualifiedTableName[1]}
	default:
		return nil, fmt.Errorf("%s: %w", tableName, ErrInvalidTableName)
	}

	// Sanitize adds its own quotes
	for i, part := range identifier {
		identifier[i] = removeQuotes(part)
		if identifier[i] == "" {
			return nil, fmt.Errorf("%s: %w", tableName, ErrInvalidTableName)
		}
	}

	return identifier, nil
}

func removeQuotes(s string) string {
	return strings.Trim(s, `"`)
}

func ParseConfig(pgurl string) (*pgx.ConnConfig, error) {
	pgCfg, err := pgx.ParseConfig(pgurl)
	if err != nil {
		urlErr := &url.Error{}
		if errors.As(err, &urlErr) {
			escapedURL, err := escapeConnectionURL(pgurl)
			if err != nil {
				return nil, fmt.Errorf("failed to escape connection URL: %w", err)
			}
			return pgx.ParseConfig(escapedURL)
		}
		return nil, err
	}
	return pgCfg, nil
}

var postgresURLRegex = regexp.MustCompile(`^(postgres(?:ql)?://)([^@]+?)@(.+)$`)

// escapeConnectionURL percent encodes the password of a postgres URL so that
// passwords with reserved characters can be parsed.
func escapeConnectionURL(rawURL string) (string, error) {
	if !strings.HasPrefix(rawURL, "postgresql://") && !strings.HasPrefix(rawURL, "postgres://") {
		return rawURL, nil
	}

	matches := postgresURLRegex.FindStringSubmatch(rawURL)
	if matches == nil {
		return "", errInvalidURL
	}

	scheme, userInfo, hostAndPath := matches[1], matches[2], matches[3]

	// the password starts after the first colon, as psql does
	username, password, found := strings.Cut(userInfo, ":")
	if !found {
		return rawURL, nil
	}
	if username == "" {
		return "", errInvalidURL
	}

	// decode first to avoid double encoding
	if strings.Contains(password, "%") {
		if unescaped, err := url.PathUnescape(password); err == nil {
			password = unescaped
		}
	}

	return fmt.Sprintf("%s%s:%s@%s", scheme, username, url.QueryEscape(password), hostAndPath), nil
}

// configureTCPKeepalive bounds the time to connect and enables TCP keepalive
// probes so broken connections are detected instead of hanging.
func configureTCPKeepalive(cfg *pgx.ConnConfig) {
	cfg.ConnectTimeout = 30 * time.Second

	cfg.DialFunc = func(ctx context.Context, network, addr string) (net.Conn, error) {
		d := &net.Dialer{
			Timeout: 30 * time.Second,
			KeepAliveConfig: net.KeepAliveConfig{
				Enable:   true,
				Idle:     15 * time.Second,
				Interval: 15 * time.Second,
				Count:    9,
			},
		}
		return d.DialContext(ctx, network, addr)
	}
}
