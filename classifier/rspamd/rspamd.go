// SPDX-License-Identifier: GPL-3.0-or-later
package rspamd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/CrawX/go-notmuch/domain"
	"github.com/CrawX/go-notmuch/mail"
)

const RspamdTimeout = 20 * time.Second

// Symbols caused by misconfiguration on the sender's side rather than by a
// failing lookup on ours.
var okFailSymbols = regexp.MustCompile(`^(R_DKIM_PERMFAIL|DMARC_POLICY_SOFTFAIL|R_SPF_SOFTFAIL|DMARC_DNSFAIL|R_SPF_FAIL)$`)

// Rspamd uses the HTTP API of an rspamd controller.
type Rspamd struct {
	client   *http.Client
	host     string
	password string
}

var _ domain.SpamClassifier = (*Rspamd)(nil)

func NewRspamd(ctx context.Context, host, password string) (*Rspamd, error) {
	rspamd := &Rspamd{
		client: &http.Client{
			Timeout: RspamdTimeout,
		},
		host:     strings.TrimSuffix(host, "/"),
		password: password,
	}
	err := rspamd.Ping(ctx)
	if err != nil {
		return nil, err
	}

	return rspamd, nil
}

func (rs *Rspamd) Name() string {
	return "rspamd"
}

func (rs *Rspamd) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rs.host+"/ping", nil)
	if err != nil {
		return fmt.Errorf("could not create ping request: %w", err)
	}
	resp, err := rs.client.Do(req)
	if err != nil {
		return fmt.Errorf("could not ping rspamd: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d from rspamd, expected 200", resp.StatusCode)
	}

	return nil
}

type checkResponse struct {
	IsSkipped bool    `json:"is_skipped"`
	Score     float64 `json:"score"`
	Symbols   map[string]struct {
		Name  string
		Score float64
	} `json:"symbols"`
	Action string `json:"action"`
}

func (rs *Rspamd) Check(ctx context.Context, rawMail []byte) *domain.SpamResult {
	body, err := rs.post(ctx, "/checkv2", rawMail, http.StatusOK)
	if err != nil {
		return errResult(fmt.Errorf("could not perform check request: %w", err))
	}

	checkResponse := &checkResponse{}
	err = json.Unmarshal(body, checkResponse)
	if err != nil {
		return errResult(fmt.Errorf("could not deserialize rspamd response: %w", err))
	}

	if checkResponse.IsSkipped {
		return errResult(fmt.Errorf("rspamd skipped the mail"))
	}
	if len(checkResponse.Symbols) == 0 {
		return errResult(fmt.Errorf("could not find any symbols in rspamd response"))
	}

	for symbol := range checkResponse.Symbols {
		if strings.HasSuffix(symbol, "FAIL") && !okFailSymbols.MatchString(symbol) {
			return errResult(fmt.Errorf("unexpected FAIL symbol %s in rspamd response", symbol))
		}
	}

	result := &domain.SpamResult{
		IsSpam: checkResponse.Action != "no action",
		Score:  checkResponse.Score,
	}

	if result.IsSpam {
		result.Report, err = report(rawMail, checkResponse, body)
		if err != nil {
			return errResult(fmt.Errorf("could not create report: %w", err))
		}
	}

	return result
}

func (rs *Rspamd) Learn(ctx context.Context, learnType domain.LearnType, rawMail []byte) error {
	var path string
	switch learnType {
	case domain.LearnSpam:
		path = "/learnspam"
	case domain.LearnHam:
		path = "/learnham"
	default:
		return fmt.Errorf("unsupported learn type %v", learnType)
	}

	unwrapped, err := mail.UnwrapSpamassassinReport(rawMail)
	if err != nil {
		return fmt.Errorf("could not unwrap SpamAssassin-style report: %w", err)
	}

	_, err = rs.post(ctx, path, unwrapped, http.StatusOK, http.StatusAlreadyReported, http.StatusNoContent)
	if err != nil {
		return fmt.Errorf("could not perform learn request: %w", err)
	}

	return nil
}

// post sends rawMail to the controller and returns the response body.
func (rs *Rspamd) post(ctx context.Context, path string, rawMail []byte, okStatus ...int) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.host+path, bytes.NewReader(rawMail))
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Password", rs.password)

	resp, err := rs.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request to rspamd: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read rspamd response: %w", err)
	}

	for _, s := range okStatus {
		if resp.StatusCode == s {
			return body, nil
		}
	}
	return nil, fmt.Errorf("unexpected status %d from rspamd, expected one of %v", resp.StatusCode, okStatus)
}

func errResult(err error) *domain.SpamResult {
	return &domain.SpamResult{Error: err}
}
