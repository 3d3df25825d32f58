package frontend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/phishguard/internal/config"
	"github.com/mikey/phishguard/internal/core"
	"github.com/mikey/phishguard/internal/whitelist"
	"go.uber.org/zap"
)

const maxHeaderValueLength = 900

// PostfixFrontend implements a Postfix after-queue content filter. Every message is
// analyzed, stamped with verdict headers and re-injected; mail is never dropped.
type PostfixFrontend struct {
	analyzer core.Analyzer
	trusted  *whitelist.Checker
	logger   *zap.Logger
	cfg      config.PostfixConfig

	mu       sync.Mutex
	server   *smtp.Server
	listener net.Listener
}

// NewPostfixFrontend creates a new Postfix content filter
func NewPostfixFrontend(
	analyzer core.Analyzer,
	trusted *whitelist.Checker,
	logger *zap.Logger,
	cfg config.PostfixConfig,
) *PostfixFrontend {
	return &PostfixFrontend{
		analyzer: analyzer,
		trusted:  trusted,
		logger:   logger,
		cfg:      cfg,
	}
}

// Start starts the SMTP listener
func (f *PostfixFrontend) Start() error {
	ln, err := net.Listen("tcp", f.cfg.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", f.cfg.ListenAddress, err)
	}

	server := smtp.NewServer(&smtpBackend{frontend: f})
	server.Addr = f.cfg.ListenAddress
	server.Domain = "localhost"
	server.ReadTimeout = 30 * time.Second
	server.WriteTimeout = 30 * time.Second
	server.MaxMessageBytes = 30 * 1024 * 1024
	server.MaxRecipients = 50
	server.AllowInsecureAuth = true

	f.mu.Lock()
	f.server = server
	f.listener = ln
	f.mu.Unlock()

	f.logger.Info("Postfix filter starting", zap.String("address", ln.Addr().String()))

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, smtp.ErrServerClosed) {
			f.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address once started
func (f *PostfixFrontend) Addr() net.Addr {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listener == nil {
		return nil
	}
	return f.listener.Addr()
}

// Stop stops the SMTP listener
func (f *PostfixFrontend) Stop() error {
	f.mu.Lock()
	server := f.server
	f.mu.Unlock()
	if server != nil {
		return server.Close()
	}
	return nil
}

// ProcessEmail analyzes an email without the SMTP round trip
func (f *PostfixFrontend) ProcessEmail(ctx context.Context, email *core.EmailData) (*core.AnalysisResult, error) {
	if err := email.Validate(); err != nil {
		return nil, err
	}
	return f.analyzer.Analyze(ctx, email, f.progressSink(email))
}

func (f *PostfixFrontend) progressSink(email *core.EmailData) core.LogSink {
	return func(entry core.LogEntry) {
		f.logger.Debug("Analysis progress",
			zap.String("sender", email.Sender),
			zap.String("message", entry.Message))
	}
}

// handleMessage analyzes a raw message and returns the bytes to re-inject
func (f *PostfixFrontend) handleMessage(ctx context.Context, envelopeFrom string, raw []byte) []byte {
	email, err := ParseMessage(bytes.NewReader(raw), envelopeFrom)
	if err != nil {
		f.logger.Warn("Failed to parse email message, forwarding unmodified",
			zap.String("sender", envelopeFrom),
			zap.Error(err))
		return f.stamp(raw, nil, err)
	}

	if f.trusted != nil && (f.trusted.IsTrusted(envelopeFrom) || f.trusted.IsTrusted(email.Sender)) {
		f.logger.Info("Skipping analysis for trusted sender", zap.String("sender", email.Sender))
		return raw
	}

	ctx, cancel := context.WithTimeout(ctx, f.cfg.AnalysisTimeout)
	defer cancel()

	result, err := f.ProcessEmail(ctx, email)
	if err != nil {
		f.logger.Error("Failed to analyze email",
			zap.String("operation", "analyze"),
			zap.String("sender", email.Sender),
			zap.Error(err))
		return f.stamp(raw, nil, err)
	}

	f.logger.Info("Processed email",
		zap.String("sender", email.Sender),
		zap.String("risk_level", string(result.RiskLevel)),
		zap.Float64("score", result.XGBoostScore),
		zap.String("model", result.Model),
		zap.String("run_id", result.RunID))

	return f.stamp(raw, result, nil)
}

// stamp prepends the verdict headers to raw and, for dangerous mail, prefixes the
// subject when configured. With analysisErr set only the error header is added.
func (f *PostfixFrontend) stamp(raw []byte, result *core.AnalysisResult, analysisErr error) []byte {
	var out bytes.Buffer

	if analysisErr != nil {
		writeHeader(&out, "X-Phish-Error", analysisErr.Error())
		out.Write(raw)
		return out.Bytes()
	}

	writeHeader(&out, f.cfg.RiskHeader, string(result.RiskLevel))
	writeHeader(&out, f.cfg.ScoreHeader, fmt.Sprintf("%.4f", result.XGBoostScore))
	writeHeader(&out, f.cfg.AnalysisHeader, result.AIAnalysis)

	if result.RiskLevel == core.RiskDangerous && f.cfg.ModifySubject && f.cfg.SubjectPrefix != "" {
		header, body := splitMessage(raw)
		out.Write(rewriteSubject(header, f.cfg.SubjectPrefix))
		out.Write(body)
		return out.Bytes()
	}

	out.Write(raw)
	return out.Bytes()
}

// writeHeader writes a single-line header, encoding non-ASCII values as RFC 2047 words
func writeHeader(w io.Writer, name, value string) {
	value = strings.Join(strings.Fields(value), " ")
	if len(value) > maxHeaderValueLength {
		cut := maxHeaderValueLength
		for cut > 0 && !isRuneStart(value[cut]) {
			cut--
		}
		value = value[:cut] + "..."
	}
	fmt.Fprintf(w, "%s: %s\r\n", name, mime.QEncoding.Encode("utf-8", value))
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

// splitMessage splits raw into the header block (with its final line ending) and the
// rest, which starts with the blank separator line
func splitMessage(raw []byte) (header, body []byte) {
	if i := bytes.Index(raw, []byte("\r\n\r\n")); i >= 0 {
		return raw[:i+2], raw[i+2:]
	}
	if i := bytes.Index(raw, []byte("\n\n")); i >= 0 {
		return raw[:i+1], raw[i+1:]
	}
	return raw, nil
}

// rewriteSubject replaces the Subject header, including folded continuation lines,
// with a prefixed one. A missing Subject is added.
func rewriteSubject(header []byte, prefix string) []byte {
	lines := bytes.SplitAfter(header, []byte("\n"))
	var out bytes.Buffer
	found := false

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if found || len(line) < 8 || !strings.EqualFold(string(line[:8]), "subject:") {
			out.Write(line)
			continue
		}

		subject := strings.TrimSpace(string(line[8:]))
		for i+1 < len(lines) && len(lines[i+1]) > 0 && (lines[i+1][0] == ' ' || lines[i+1][0] == '\t') {
			i++
			subject += " " + strings.TrimSpace(string(lines[i]))
		}
		subject = decodeHeader(subject)
		if !strings.HasPrefix(subject, prefix) {
			subject = prefix + subject
		}
		writeHeader(&out, "Subject", subject)
		found = true
	}

	if !found {
		writeHeader(&out, "Subject", strings.TrimSpace(prefix))
	}
	return out.Bytes()
}

// reinject sends the processed message back to Postfix
func (f *PostfixFrontend) reinject(sender string, recipients []string, data []byte) error {
	addr := net.JoinHostPort(f.cfg.ReinjectAddress, fmt.Sprintf("%d", f.cfg.ReinjectPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to Postfix: %w", err)
	}
	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}
	if err := c.Mail(sender, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	recipientOK := false
	for _, recipient := range recipients {
		if err := c.Rcpt(recipient, nil); err != nil {
			f.logger.Warn("RCPT TO failed for recipient",
				zap.String("recipient", recipient),
				zap.Error(err))
			continue
		}
		recipientOK = true
	}
	if !recipientOK {
		return fmt.Errorf("all recipients were rejected")
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send email data: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message has already been accepted
		f.logger.Warn("QUIT command failed", zap.Error(err))
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	frontend *PostfixFrontend
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{frontend: b.frontend}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	frontend   *PostfixFrontend
	sender     string
	recipients []string
}

func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.recipients = append(s.recipients, to)
	return nil
}

// Data analyzes the message and re-injects it. A re-injection failure, or
// re-injection being disabled, is reported as a temporary error so Postfix keeps
// the message queued instead of losing it.
func (s *smtpSession) Data(r io.Reader) error {
	f := s.frontend

	raw, err := io.ReadAll(r)
	if err != nil {
		f.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	if !f.cfg.ReinjectEnabled {
		f.logger.Error("Postfix re-injection disabled, deferring message",
			zap.String("operation", "reinject"),
			zap.String("sender", s.sender))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Re-injection disabled, try again later",
		}
	}

	processed := f.handleMessage(context.Background(), s.sender, raw)

	if err := f.reinject(s.sender, s.recipients, processed); err != nil {
		f.logger.Error("Failed to send email back to Postfix",
			zap.String("operation", "reinject"),
			zap.String("sender", s.sender),
			zap.Error(err))
		return &smtp.SMTPError{
			Code:         451,
			EnhancedCode: smtp.EnhancedCode{4, 3, 0},
			Message:      "Temporary failure re-injecting message",
		}
	}
	return nil
}

func (s *smtpSession) Logout() error {
	return nil
}
