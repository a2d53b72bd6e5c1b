package usecase

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/betterbuy/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu       sync.Mutex
	data     map[string]interface{}
	getError error
	setError error
	setCalls int
	getCalls int
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{data: make(map[string]interface{})}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalls++
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalls++
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

// fakeNode is a document node with fixed text and attributes
type fakeNode struct {
	text  string
	attrs map[string]string
}

func (n fakeNode) Text() string { return n.text }

func (n fakeNode) Attr(name string) (string, bool) {
	v, ok := n.attrs[name]
	return v, ok
}

func img(src string, width, height int) fakeNode {
	attrs := map[string]string{"src": src}
	if width > 0 {
		attrs["width"] = strconv.Itoa(width)
	}
	if height > 0 {
		attrs["height"] = strconv.Itoa(height)
	}
	return fakeNode{attrs: attrs}
}

// fakeDocument answers queries from fixed selector maps
type fakeDocument struct {
	url   string
	title string
	css   map[string][]domain.Node
	xpath map[string][]domain.Node
}

func (d *fakeDocument) URL() string   { return d.url }
func (d *fakeDocument) Title() string { return d.title }

func (d *fakeDocument) Find(selector string) []domain.Node {
	return d.css[selector]
}

func (d *fakeDocument) XPath(expr string) []domain.Node {
	return d.xpath[expr]
}

// fakeRateSource returns a fixed table and counts fetches
type fakeRateSource struct {
	rates domain.RateTable
	err   error
	delay time.Duration
	calls int32
}

func (s *fakeRateSource) FetchRates(ctx context.Context) (*domain.ExchangeRateTable, error) {
	atomic.AddInt32(&s.calls, 1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &domain.ExchangeRateTable{Base: domain.CurrencyUSD, Rates: s.rates.Clone(), Source: "network"}, nil
}

func (s *fakeRateSource) Calls() int {
	return int(atomic.LoadInt32(&s.calls))
}

// staticRates is a RateProvider over a fixed table
type staticRates domain.RateTable

func (r staticRates) GetRates(ctx context.Context) domain.RateTable {
	return domain.RateTable(r)
}

// fakeProber reports fixed sizes, optionally after a delay
type fakeProber struct {
	sizes map[string]domain.ImageSize
	delay map[string]time.Duration
	calls int32
}

func (p *fakeProber) Probe(ctx context.Context, url string) (domain.ImageSize, error) {
	atomic.AddInt32(&p.calls, 1)
	if d := p.delay[url]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return domain.ImageSize{}, ctx.Err()
		}
	}
	size, ok := p.sizes[url]
	if !ok {
		return domain.ImageSize{}, context.DeadlineExceeded
	}
	return size, nil
}

// fakeModel is a scripted domain.LanguageModel
type fakeModel struct {
	mu           sync.Mutex
	availability domain.Availability
	reply        string
	createErr    error
	promptErr    error
	sessions     int
	destroyed    int
	prompts      []string
	systems      []string
}

func (m *fakeModel) Availability(ctx context.Context) domain.Availability {
	return m.availability
}

func (m *fakeModel) CreateSession(ctx context.Context, systemPrompt string) (domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.sessions++
	m.systems = append(m.systems, systemPrompt)
	return &fakeSession{model: m}, nil
}

type fakeSession struct {
	model *fakeModel
}

func (s *fakeSession) Prompt(ctx context.Context, text string) (string, error) {
	s.model.mu.Lock()
	defer s.model.mu.Unlock()
	s.model.prompts = append(s.model.prompts, text)
	if s.model.promptErr != nil {
		return "", s.model.promptErr
	}
	return s.model.reply, nil
}

func (s *fakeSession) Destroy() {
	s.model.mu.Lock()
	defer s.model.mu.Unlock()
	s.model.destroyed++
}

// fakeCapabilities implements the capture-time AI interfaces
type fakeCapabilities struct {
	availability domain.Availability
	languages    []domain.LanguageCandidate
	detectErr    error
	translation  string
	translateErr error
	summary      string
	summarizeErr error

	detectCalls    int
	translateCalls int
	summarizeCalls int
	translatedFrom string
	summaryOpts    domain.SummaryOptions
	summarizedText string
}

func (f *fakeCapabilities) Availability(ctx context.Context) domain.Availability {
	return f.availability
}

func (f *fakeCapabilities) Detect(ctx context.Context, text string) ([]domain.LanguageCandidate, error) {
	f.detectCalls++
	return f.languages, f.detectErr
}

func (f *fakeCapabilities) Translate(ctx context.Context, text, source, target string) (string, error) {
	f.translateCalls++
	f.translatedFrom = source
	return f.translation, f.translateErr
}

func (f *fakeCapabilities) Summarize(ctx context.Context, text string, opts domain.SummaryOptions) (string, error) {
	f.summarizeCalls++
	f.summaryOpts = opts
	f.summarizedText = text
	return f.summary, f.summarizeErr
}

// memoryCart is an in-memory domain.CartRepository
type memoryCart struct {
	mu    sync.Mutex
	items []domain.Product
	err   error
}

func (c *memoryCart) List(ctx context.Context) ([]domain.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	return append([]domain.Product(nil), c.items...), nil
}

func (c *memoryCart) Append(ctx context.Context, p domain.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.items = append(c.items, p)
	return nil
}

func (c *memoryCart) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, p := range c.items {
		if p.ID == id {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (c *memoryCart) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	return nil
}

// recordingMetrics counts what the pipeline reports
type recordingMetrics struct {
	mu          sync.Mutex
	comparisons []string
	refreshes   []string
	captures    []bool
	strategies  map[string]string
}

func (m *recordingMetrics) ComparisonRendered(kind domain.ArtifactKind, reason domain.FallbackReason) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.comparisons = append(m.comparisons, string(kind)+"/"+string(reason))
}

func (m *recordingMetrics) RateRefresh(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refreshes = append(m.refreshes, result)
}

func (m *recordingMetrics) ProductCaptured(enriched bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.captures = append(m.captures, enriched)
}

func (m *recordingMetrics) StrategyMatched(attribute, strategy string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.strategies == nil {
		m.strategies = map[string]string{}
	}
	m.strategies[attribute] = strategy
}

func float(v float64) *float64 {
	return &v
}
