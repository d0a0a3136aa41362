// wtinylfu.go: L5 default eviction policy — W-TinyLFU admission over a
// small LRU window and a segmented-LRU main region (probation +
// protected).
//
// A flat open-addressed table with no intrusive list typically folds its
// admission decision directly into eviction, sampling a handful of slots
// and evicting whichever has the lowest sketch frequency — a reasonable
// approximation, but not the window/main split this policy needs. This
// file builds on the packed-counter frequencySketch and the academic
// W-TinyLFU paper's probation/protected split (DESIGN.md records the
// 1%/99% window/main and 80%/20% probation/protected ratios chosen here).
//
// Copyright (c) 2025 The jcachex Authors
// SPDX-License-Identifier: MPL-2.0

package jcachex

// wTinyLFUPolicy implements evictionPolicy[K,V] with three internal
// regions: window (recency, LRU), probation (candidates admitted to
// main but not yet re-accessed), and protected (main entries that have
// proven themselves with a second access).
type wTinyLFUPolicy[K comparable, V any] struct {
	window    dlist[K, V]
	probation dlist[K, V]
	protected dlist[K, V]
	nodes     map[K]*policyNode[K, V]
	region    map[K]wtlfuRegion

	sketch *frequencySketch

	windowCap    int
	protectedCap int
}

type wtlfuRegion int8

const (
	regionWindow wtlfuRegion = iota
	regionProbation
	regionProtected
)

func newWTinyLFUPolicy[K comparable, V any](capacity int, windowRatio, probationRatio float64, sketch *frequencySketch) *wTinyLFUPolicy[K, V] {
	if windowRatio <= 0 || windowRatio >= 1 {
		windowRatio = DefaultWindowRatio
	}
	if probationRatio <= 0 || probationRatio >= 1 {
		probationRatio = DefaultProbationRatio
	}

	windowCap := int(float64(capacity)*windowRatio + 0.5)
	if windowCap < 1 {
		windowCap = 1
	}
	mainCap := capacity - windowCap
	if mainCap < 1 {
		mainCap = 1
	}
	protectedCap := int(float64(mainCap) * (1 - probationRatio))
	if protectedCap < 0 {
		protectedCap = 0
	}

	return &wTinyLFUPolicy[K, V]{
		nodes:        make(map[K]*policyNode[K, V], capacity),
		region:       make(map[K]wtlfuRegion, capacity),
		sketch:       sketch,
		windowCap:    windowCap,
		protectedCap: protectedCap,
	}
}

func (p *wTinyLFUPolicy[K, V]) onInsert(key K, e *entry[K, V]) {
	n := &policyNode[K, V]{key: key, ent: e}
	p.nodes[key] = n
	p.region[key] = regionWindow
	p.window.pushFront(n)
}

func (p *wTinyLFUPolicy[K, V]) onAccess(key K, e *entry[K, V]) {
	n, ok := p.nodes[key]
	if !ok {
		return
	}
	switch p.region[key] {
	case regionWindow:
		p.window.moveToFront(n)
	case regionProtected:
		p.protected.moveToFront(n)
	case regionProbation:
		// Promote to protected; demote protected's LRU back to probation
		// if that overflows protectedCap, keeping main's total size fixed.
		p.probation.remove(n)
		p.protected.pushFront(n)
		p.region[key] = regionProtected
		if p.protectedCap > 0 && p.protected.size > p.protectedCap {
			demoted := p.protected.popBack()
			if demoted != nil {
				p.probation.pushFront(demoted)
				p.region[demoted.key] = regionProbation
			}
		}
	}
}

func (p *wTinyLFUPolicy[K, V]) onRemove(key K, e *entry[K, V]) {
	n, ok := p.nodes[key]
	if !ok {
		return
	}
	switch p.region[key] {
	case regionWindow:
		p.window.remove(n)
	case regionProbation:
		p.probation.remove(n)
	case regionProtected:
		p.protected.remove(n)
	}
	delete(p.nodes, key)
	delete(p.region, key)
}

// selectVictim implements the admission rule: when the window overflows,
// its LRU candidate contests against main's LRU victim (probation's
// tail) via the frequency sketch; the loser is evicted. Ties favor the
// existing main victim. If the window is within budget but main still
// holds too many entries overall, the coldest probation entry is
// evicted directly.
func (p *wTinyLFUPolicy[K, V]) selectVictim() (K, *entry[K, V], bool) {
	var zero K

	if p.window.size > p.windowCap {
		candidate := p.window.popBack()
		if candidate == nil {
			return zero, nil, false
		}
		delete(p.region, candidate.key)

		mainVictim := p.probation.tailPeek()
		if mainVictim == nil {
			// Main has room; admit the candidate straight into probation,
			// then pick the victim again now that main has an entry for
			// the next window candidate to contest.
			p.nodes[candidate.key] = candidate
			p.region[candidate.key] = regionProbation
			p.probation.pushFront(candidate)
			return p.selectVictim()
		}

		candFreq := p.sketch.frequency(candidate.ent.hash)
		victimFreq := p.sketch.frequency(mainVictim.ent.hash)

		if candFreq > victimFreq {
			// Admit candidate, evict the probation victim.
			p.probation.remove(mainVictim)
			delete(p.nodes, mainVictim.key)
			delete(p.region, mainVictim.key)

			p.nodes[candidate.key] = candidate
			p.region[candidate.key] = regionProbation
			p.probation.pushFront(candidate)

			return mainVictim.key, mainVictim.ent, true
		}

		// Reject candidate; it is evicted and the existing victim stays.
		delete(p.nodes, candidate.key)
		return candidate.key, candidate.ent, true
	}

	return p.selectVictimIfOverCapacity()
}

// selectVictimIfOverCapacity handles the case where the window is within
// budget but the combined probation+protected regions still hold more
// entries than the policy was sized for (e.g. after a burst of promotions
// shifted the window/main balance); it evicts straight from probation's
// tail, the coldest main entry.
func (p *wTinyLFUPolicy[K, V]) selectVictimIfOverCapacity() (K, *entry[K, V], bool) {
	n := p.probation.popBack()
	if n == nil {
		n = p.protected.popBack()
		if n == nil {
			var zero K
			return zero, nil, false
		}
	}
	delete(p.nodes, n.key)
	delete(p.region, n.key)
	return n.key, n.ent, true
}

func (p *wTinyLFUPolicy[K, V]) size() int {
	return p.window.size + p.probation.size + p.protected.size
}
