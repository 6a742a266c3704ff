// Package chaintest provides in-memory network readers for tests.
package chaintest

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/haMahdiyar/analyzer-galxe-refdrop/internal/domain"
)

// Reader answers both checks from fixed values and counts its calls.
type Reader struct {
	Net        domain.Network
	Code       string
	Subscribed bool
	Err        error
	// Delay is honored unless ctx ends first.
	Delay time.Duration
	Panic bool

	calls atomic.Int32
}

func NewReader(name string) *Reader {
	return &Reader{Net: domain.Network{Name: name, RPCURL: "http://" + name + ".invalid"}}
}

func (r *Reader) Network() domain.Network { return r.Net }

func (r *Reader) Calls() int { return int(r.calls.Load()) }

func (r *Reader) ReferralCode(ctx context.Context, _ common.Address) (string, error) {
	if err := r.wait(ctx); err != nil {
		return "", err
	}
	if r.Err != nil {
		return "", r.Err
	}
	return r.Code, nil
}

func (r *Reader) HasSubscription(ctx context.Context, _ common.Address) (bool, error) {
	if err := r.wait(ctx); err != nil {
		return false, err
	}
	if r.Err != nil {
		return false, r.Err
	}
	return r.Subscribed, nil
}

func (r *Reader) wait(ctx context.Context) error {
	r.calls.Add(1)
	if r.Panic {
		panic("chaintest: injected panic")
	}
	if r.Delay <= 0 {
		return nil
	}
	select {
	case <-time.After(r.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Readers builds n readers named net1..netN.
func Readers(n int) []*Reader {
	out := make([]*Reader, n)
	for i := range out {
		out[i] = NewReader("net" + string(rune('1'+i)))
	}
	return out
}

// TotalCalls sums the calls seen by all readers.
func TotalCalls(readers []*Reader) int {
	total := 0
	for _, r := range readers {
		total += r.Calls()
	}
	return total
}
