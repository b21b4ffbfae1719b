package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"howett.net/plist"
)

// Session starts transfers and reports their events to a SessionDelegate.
// A Manager owns exactly one Session.
type Session interface {
	// SetDelegate installs the receiver of transfer callbacks. Called once, before Start.
	SetDelegate(d SessionDelegate)
	// Start begins transferring url, continuing from resumeData when it is usable.
	Start(url string, resumeData []byte) Task
}

// Task is one running transfer.
type Task interface {
	// CancelWithResumeData stops the transfer and calls fn with a resume token,
	// or nil when none could be produced.
	CancelWithResumeData(fn func(resumeData []byte))
	// ResumeData returns a token for the bytes received so far without stopping the transfer.
	ResumeData() []byte
}

// SessionDelegate receives transfer callbacks on the session's goroutines.
type SessionDelegate interface {
	DidWriteData(url string, written, expected int64)
	DidFinish(url string, location string)
	DidFail(url string, err error, resumeData []byte)
}

// resumeState is the content of an HTTPSession resume token.
type resumeState struct {
	URL       string `plist:"url"`
	TempPath  string `plist:"tempPath"`
	Offset    int64  `plist:"offset"`
	Expected  int64  `plist:"expected"`
	Validator string `plist:"validator,omitempty"`
}

func (r resumeState) encode() []byte {
	data, err := plist.Marshal(r, plist.BinaryFormat)
	if err != nil {
		return nil
	}
	return data
}

func decodeResumeData(data []byte) (resumeState, error) {
	var r resumeState
	if len(data) == 0 {
		return r, ErrInvalidResumeData
	}
	if _, err := plist.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("%w: %v", ErrInvalidResumeData, err)
	}
	if r.TempPath == "" {
		return r, ErrInvalidResumeData
	}
	return r, nil
}

const (
	copyChunkSize           = 32 * 1024
	defaultProgressInterval = 100 * time.Millisecond
)

// HTTPSession performs range-capable HTTP GET transfers into a temporary directory.
type HTTPSession struct {
	client           *http.Client
	tempDir          string
	userAgent        string
	progressInterval time.Duration
	log              *slog.Logger

	mu       sync.RWMutex
	delegate SessionDelegate
	wg       sync.WaitGroup
}

// SessionOption configures an HTTPSession.
type SessionOption func(*HTTPSession)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) SessionOption {
	return func(s *HTTPSession) {
		s.client = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every transfer.
func WithUserAgent(ua string) SessionOption {
	return func(s *HTTPSession) {
		s.userAgent = ua
	}
}

// WithProgressInterval sets the minimum spacing of DidWriteData callbacks.
func WithProgressInterval(d time.Duration) SessionOption {
	return func(s *HTTPSession) {
		s.progressInterval = d
	}
}

// WithResponseHeaderTimeout bounds the wait for response headers. It applies
// to the session's own transport, so pass it after WithHTTPClient.
func WithResponseHeaderTimeout(d time.Duration) SessionOption {
	return func(s *HTTPSession) {
		if t, ok := s.client.Transport.(*http.Transport); ok && d > 0 {
			t.ResponseHeaderTimeout = d
		}
	}
}

// NewHTTPSession creates a session writing partial files into tempDir.
func NewHTTPSession(tempDir string, log *slog.Logger, opts ...SessionOption) (*HTTPSession, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	tempDir, err := filepath.Abs(tempDir)
	if err != nil {
		return nil, fmt.Errorf("resolve temp dir: %w", err)
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 8
	transport.ResponseHeaderTimeout = 30 * time.Second

	s := &HTTPSession{
		client:           &http.Client{Transport: transport},
		tempDir:          tempDir,
		userAgent:        "stash/1.0",
		progressInterval: defaultProgressInterval,
		log:              log.With("component", "session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetDelegate implements Session.
func (s *HTTPSession) SetDelegate(d SessionDelegate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delegate = d
}

func (s *HTTPSession) getDelegate() SessionDelegate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.delegate
}

// Discard removes the partial file referenced by resumeData. Tokens that do not
// point into the session's temp directory are ignored.
func (s *HTTPSession) Discard(resumeData []byte) {
	rs, err := decodeResumeData(resumeData)
	if err != nil {
		return
	}
	if filepath.Dir(rs.TempPath) != filepath.Clean(s.tempDir) {
		return
	}
	if err := os.Remove(rs.TempPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn("removing partial file", "path", rs.TempPath, "error", err)
	}
}

// Wait blocks until every started transfer goroutine has returned.
func (s *HTTPSession) Wait() {
	s.wg.Wait()
}

// Start implements Session.
func (s *HTTPSession) Start(url string, resumeData []byte) Task {
	ctx, cancel := context.WithCancel(context.Background())
	t := &httpTask{
		session: s,
		url:     url,
		cancel:  cancel,
	}

	if len(resumeData) > 0 {
		rs, err := decodeResumeData(resumeData)
		switch {
		case err != nil:
			s.log.Warn("ignoring resume data", "url", url, "error", err)
		case rs.URL != url:
			s.log.Warn("ignoring resume data for another url", "url", url)
		default:
			t.tempPath = rs.TempPath
			t.validator = rs.Validator
			t.expected.Store(rs.Expected)
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		t.run(ctx)
	}()
	return t
}

type httpTask struct {
	session *HTTPSession
	url     string
	cancel  context.CancelFunc

	written  atomic.Int64
	expected atomic.Int64

	mu        sync.Mutex
	tempPath  string
	validator string
	canceled  bool
	done      bool
	onCancel  func([]byte)
	lastTick  time.Time
}

func (t *httpTask) snapshot() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *httpTask) snapshotLocked() []byte {
	if t.tempPath == "" {
		return nil
	}
	return resumeState{
		URL:       t.url,
		TempPath:  t.tempPath,
		Offset:    t.written.Load(),
		Expected:  t.expected.Load(),
		Validator: t.validator,
	}.encode()
}

// ResumeData implements Task.
func (t *httpTask) ResumeData() []byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return nil
	}
	return t.snapshotLocked()
}

// CancelWithResumeData implements Task.
func (t *httpTask) CancelWithResumeData(fn func(resumeData []byte)) {
	t.mu.Lock()
	if t.done || t.canceled {
		t.mu.Unlock()
		fn(nil)
		return
	}
	t.canceled = true
	t.onCancel = fn
	t.mu.Unlock()
	t.cancel()
}

func (t *httpTask) run(ctx context.Context) {
	err := t.transfer(ctx)

	t.mu.Lock()
	t.done = true
	canceled, onCancel := t.canceled, t.onCancel
	t.mu.Unlock()
	t.cancel()

	delegate := t.session.getDelegate()

	switch {
	case canceled:
		onCancel(t.snapshot())
	case err != nil:
		if delegate != nil {
			delegate.DidFail(t.url, err, t.snapshot())
		}
	default:
		if delegate != nil {
			t.mu.Lock()
			location := t.tempPath
			t.mu.Unlock()
			delegate.DidFinish(t.url, location)
		}
	}
}

// openTemp reopens the partial file named by the resume token, or creates a new one.
// The resume offset is the partial file's actual size.
func (t *httpTask) openTemp() (*os.File, int64, error) {
	t.mu.Lock()
	path := t.tempPath
	t.mu.Unlock()

	if path != "" {
		if info, err := os.Stat(path); err == nil {
			f, err := os.OpenFile(path, os.O_WRONLY, 0644)
			if err == nil {
				return f, info.Size(), nil
			}
		}
	}
	f, err := os.CreateTemp(t.session.tempDir, "transfer-*.part")
	if err != nil {
		return nil, 0, fmt.Errorf("create temp file: %w", err)
	}
	t.mu.Lock()
	t.tempPath = f.Name()
	t.validator = ""
	t.mu.Unlock()
	return f, 0, nil
}

func (t *httpTask) setValidator(resp *http.Response) {
	v := resp.Header.Get("ETag")
	if v == "" {
		v = resp.Header.Get("Last-Modified")
	}
	if v == "" {
		return
	}
	t.mu.Lock()
	t.validator = v
	t.mu.Unlock()
}

func (t *httpTask) transfer(ctx context.Context) error {
	f, offset, err := t.openTemp()
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	resp, err := t.request(ctx, offset)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusPartialContent:
		// continue at offset
	case http.StatusOK:
		offset = 0
	case http.StatusRequestedRangeNotSatisfiable:
		if total := t.expected.Load(); total > 0 && offset >= total {
			t.written.Store(offset)
			return nil
		}
		_ = resp.Body.Close()
		if resp, err = t.request(ctx, 0); err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
		}
		offset = 0
	default:
		return fmt.Errorf("%w: %s", ErrBadStatus, resp.Status)
	}

	if err := f.Truncate(offset); err != nil {
		return fmt.Errorf("truncate temp file: %w", err)
	}
	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return fmt.Errorf("seek temp file: %w", err)
	}

	t.expected.Store(expectedLength(resp, offset))
	t.setValidator(resp)
	t.written.Store(offset)

	buf := make([]byte, copyChunkSize)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, err := f.Write(buf[:n]); err != nil {
				return fmt.Errorf("write temp file: %w", err)
			}
			t.written.Add(int64(n))
			t.reportProgress(false)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			_ = f.Sync()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read body: %w", readErr)
		}
	}

	if err := f.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if total := t.expected.Load(); total > 0 && t.written.Load() < total {
		return fmt.Errorf("read body: %w", io.ErrUnexpectedEOF)
	}
	t.reportProgress(true)
	return nil
}

func (t *httpTask) request(ctx context.Context, offset int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if t.session.userAgent != "" {
		req.Header.Set("User-Agent", t.session.userAgent)
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
		t.mu.Lock()
		validator := t.validator
		t.mu.Unlock()
		if validator != "" {
			req.Header.Set("If-Range", validator)
		}
	}

	resp, err := t.session.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

// expectedLength derives the full size of the resource, or 0 when unknown.
func expectedLength(resp *http.Response, offset int64) int64 {
	if cr := resp.Header.Get("Content-Range"); cr != "" {
		if i := strings.LastIndex(cr, "/"); i >= 0 {
			if total, err := strconv.ParseInt(cr[i+1:], 10, 64); err == nil {
				return total
			}
		}
	}
	if resp.ContentLength >= 0 {
		return offset + resp.ContentLength
	}
	return 0
}

func (t *httpTask) reportProgress(final bool) {
	t.mu.Lock()
	if t.canceled {
		t.mu.Unlock()
		return
	}
	now := time.Now()
	if !final && now.Sub(t.lastTick) < t.session.progressInterval {
		t.mu.Unlock()
		return
	}
	t.lastTick = now
	t.mu.Unlock()

	if delegate := t.session.getDelegate(); delegate != nil {
		delegate.DidWriteData(t.url, t.written.Load(), t.expected.Load())
	}
}
