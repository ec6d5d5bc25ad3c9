package llm

import "context"

// FakeClient returns a fixed response, used by stage tests that need a
// Client without a live provider.
type FakeClient struct {
	ProviderName string
	ResponseText string
	Err          error
}

// Name reports the configured provider name.
func (f *FakeClient) Name() string {
	if f.ProviderName == "" {
		return "fake"
	}
	return f.ProviderName
}

// Generate returns the configured canned response or error.
func (f *FakeClient) Generate(ctx context.Context, req Request) (*Response, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return &Response{Text: f.ResponseText}, nil
}
