package worker

import (
	"testing"

	"github.com/forumarchiver/forumarchiver/internal/config"
)

func TestDomainSemaphoreReusedPerDomain(t *testing.T) {
	p := NewPool(&State{Config: &config.Config{WorkerConcurrency: 4, PerDomainConcurrency: 2}})

	a := p.domainSemaphore("example.com")
	b := p.domainSemaphore("example.com")
	if a != b {
		t.Error("domainSemaphore() returned distinct channels for the same domain")
	}

	c := p.domainSemaphore("other.com")
	if cap(a) != 2 || cap(c) != 2 {
		t.Errorf("domainSemaphore() capacity = %d/%d, want 2", cap(a), cap(c))
	}
}
