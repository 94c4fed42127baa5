// Package mock provides a test double for the asr package interfaces.
//
// Use Provider to feed scripted segments into the pipeline and inspect which
// audio paths were submitted for transcription.
package mock

import (
	"context"
	"sync"

	"github.com/fellmoon/sidecar/pkg/asr"
)

// Provider is a mock implementation of asr.Provider.
type Provider struct {
	mu sync.Mutex

	// Result is returned by Transcribe. If nil, an empty Result is returned.
	Result *asr.Result

	// Err, if non-nil, is returned as the error from Transcribe.
	Err error

	// Calls records the audioPath of every Transcribe invocation.
	Calls []string
}

// Compile-time interface check.
var _ asr.Provider = (*Provider)(nil)

// Transcribe records the call and returns Result, Err.
func (p *Provider) Transcribe(ctx context.Context, audioPath string) (*asr.Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Calls = append(p.Calls, audioPath)
	if p.Err != nil {
		return nil, p.Err
	}
	if p.Result != nil {
		return p.Result, nil
	}
	return &asr.Result{}, nil
}

// CallCount returns the number of Transcribe invocations so far.
func (p *Provider) CallCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.Calls)
}
