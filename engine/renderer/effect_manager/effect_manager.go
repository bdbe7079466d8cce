// Package effect_manager owns the GPU side of effects: it compiles effects into backend programs per
// render path, keeps their uniform values in sync with parameter changes, and destroys the programs of
// disposed effects once the frame that may still use them has been submitted.
package effect_manager

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-core/common"
	"github.com/Carmen-Shannon/oxy-core/engine/effect"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/backend"
	"github.com/Carmen-Shannon/oxy-core/engine/renderer/shader"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// effectManager is the implementation of the EffectManager interface.
type effectManager struct {
	logger  *zap.Logger
	backend backend.Backend
	pp      shader.PreProcessor

	registry map[uuid.UUID]*CompiledEffectSet
	// order keeps registration order so batch compilation is deterministic.
	order []uuid.UUID

	pending    []uuid.UUID
	pendingSet map[uuid.UUID]bool

	workers  int
	pool     worker.DynamicWorkerPool
	released bool
}

// EffectManager defines the interface for the registry of effects and their compiled programs.
//
// The registry follows each effect through Registered (uncompiled), Registered (compiled), pending
// deletion after Dispose, and removal by Cleanup. It is driven from the render thread and is not safe
// for concurrent use.
type EffectManager interface {
	// RegisterEffect adds an effect to the registry and subscribes to its change events.
	// Registering the same effect again, or a disposed effect, does nothing.
	//
	// Parameters:
	//   - e: the effect to register
	RegisterEffect(e effect.Effect)

	// IsRegistered reports whether the effect identity is in the registry.
	//
	// Parameters:
	//   - id: the effect identity
	//
	// Returns:
	//   - bool: true while the effect is registered, including while it waits for Cleanup
	IsRegistered(id uuid.UUID) bool

	// IsPendingDeletion reports whether the effect was disposed and waits for Cleanup.
	//
	// Parameters:
	//   - id: the effect identity
	//
	// Returns:
	//   - bool: true if the identity is on the deletion queue
	IsPendingDeletion(id uuid.UUID) bool

	// Set returns the compiled effect set of a registered effect.
	//
	// Parameters:
	//   - id: the effect identity
	//
	// Returns:
	//   - *CompiledEffectSet: the set
	//   - bool: false if the effect is not registered
	Set(id uuid.UUID) (*CompiledEffectSet, bool)

	// GetCompiledEffect returns the cached variant of an effect for a render path. It never compiles.
	//
	// Parameters:
	//   - e: the effect
	//   - path: the render path
	//
	// Returns:
	//   - *CompiledEffect: the compiled variant
	//   - bool: false if the effect is unregistered or not compiled for the path
	GetCompiledEffect(e effect.Effect, path common.RenderPath) (*CompiledEffect, bool)

	// StoreCompiledEffect caches a compiled variant. A variant that does not depend on the render path
	// is stored for every path. Variants that are replaced are released through the backend.
	//
	// Parameters:
	//   - e: the effect the variant was compiled from
	//   - path: the render path it was compiled for
	//   - compiled: the compiled variant
	//
	// Returns:
	//   - error: ErrEffectNotRegistered if the effect is not registered
	StoreCompiledEffect(e effect.Effect, path common.RenderPath, compiled *CompiledEffect) error

	// EnsureCompiled returns the cached variant, compiling and storing it first if needed.
	//
	// Parameters:
	//   - e: a registered effect
	//   - path: the render path
	//
	// Returns:
	//   - *CompiledEffect: the compiled variant
	//   - error: ErrEffectNotRegistered, *InvalidEffectError or the backend compile error
	EnsureCompiled(e effect.Effect, path common.RenderPath) (*CompiledEffect, error)

	// PrepareSources pre-processes the passes of many effects in parallel on the worker pool.
	// Compilation is left to the caller's thread.
	//
	// Parameters:
	//   - effects: the effects to prepare
	//   - path: the render path
	//
	// Returns:
	//   - map[uuid.UUID][]backend.ProgramSource: prepared sources of every effect that succeeded
	//   - error: the joined errors of the effects that failed
	PrepareSources(effects []effect.Effect, path common.RenderPath) (map[uuid.UUID][]backend.ProgramSource, error)

	// CompileRegistered compiles every registered effect that has no variant for the path yet.
	// Sources are prepared on the worker pool; programs are compiled serially on the calling thread.
	//
	// Parameters:
	//   - path: the render path
	//
	// Returns:
	//   - error: the joined errors of the effects that failed; they stay registered and uncompiled
	CompileRegistered(path common.RenderPath) error

	// Cleanup drains the deletion queue, most recently disposed first. Each drained effect is removed
	// from the registry, unsubscribed, and its programs are released. Call it once per frame after the
	// frame's draws have been submitted.
	//
	// Returns:
	//   - []uuid.UUID: the identities removed, in removal order
	Cleanup() []uuid.UUID

	// Len returns the number of registered effects.
	Len() int

	// PendingLen returns the number of effects waiting for Cleanup.
	PendingLen() int

	// Release stops the worker pool and releases the programs of every registered effect, pending
	// ones included, leaving the registry empty. Calling it again does nothing. PrepareSources and
	// CompileRegistered return ErrReleased afterwards.
	Release()

	// Backend returns the backend the manager compiles with.
	Backend() backend.Backend

	// PreProcessor returns the shader pre-processor the manager prepares sources with.
	PreProcessor() shader.PreProcessor
}

var _ EffectManager = &effectManager{}

// NewEffectManager creates an EffectManager that compiles through the given backend.
//
// Parameters:
//   - b: the render backend; must not be nil
//   - options: variadic list of EffectManagerBuilderOption functions to configure the manager
//
// Returns:
//   - EffectManager: the new manager
func NewEffectManager(b backend.Backend, options ...EffectManagerBuilderOption) EffectManager {
	if b == nil {
		panic("effect_manager: nil backend")
	}
	m := &effectManager{
		logger:     zap.NewNop(),
		backend:    b,
		registry:   make(map[uuid.UUID]*CompiledEffectSet),
		pendingSet: make(map[uuid.UUID]bool),
		workers:    4,
	}
	for _, opt := range options {
		opt(m)
	}
	if m.pp == nil {
		m.pp = shader.NewPreProcessor()
	}
	if m.workers < 1 {
		m.workers = 1
	}
	m.pool = worker.NewDynamicWorkerPool(m.workers, 256, 1*time.Second)
	return m
}

func (m *effectManager) Backend() backend.Backend {
	return m.backend
}

func (m *effectManager) PreProcessor() shader.PreProcessor {
	return m.pp
}

func (m *effectManager) RegisterEffect(e effect.Effect) {
	id := e.ID()
	if _, ok := m.registry[id]; ok {
		return
	}
	if e.Disposed() {
		m.logger.Debug("ignoring disposed effect", zap.Stringer("effect", id), zap.String("name", e.Name()))
		return
	}

	set := newCompiledEffectSet(e)
	set.unsubscribe = e.Subscribe(func(ev effect.ChangeEvent) {
		m.handleEvent(ev)
	})
	m.registry[id] = set
	m.order = append(m.order, id)
	m.logger.Debug("effect registered", zap.Stringer("effect", id), zap.String("name", e.Name()))
}

func (m *effectManager) handleEvent(ev effect.ChangeEvent) {
	set, ok := m.registry[ev.EffectID]
	if !ok {
		return
	}
	switch ev.Kind {
	case effect.ChangeUpdate:
		for _, c := range set.distinct() {
			c.markDirty(ev.ParamID, ev.Value)
		}
	case effect.ChangeDispose:
		if m.pendingSet[ev.EffectID] {
			return
		}
		m.pendingSet[ev.EffectID] = true
		m.pending = append(m.pending, ev.EffectID)
		m.logger.Debug("effect queued for deletion", zap.Stringer("effect", ev.EffectID))
	}
}

func (m *effectManager) IsRegistered(id uuid.UUID) bool {
	_, ok := m.registry[id]
	return ok
}

func (m *effectManager) IsPendingDeletion(id uuid.UUID) bool {
	return m.pendingSet[id]
}

func (m *effectManager) Set(id uuid.UUID) (*CompiledEffectSet, bool) {
	set, ok := m.registry[id]
	return set, ok
}

func (m *effectManager) GetCompiledEffect(e effect.Effect, path common.RenderPath) (*CompiledEffect, bool) {
	set, ok := m.registry[e.ID()]
	if !ok {
		return nil, false
	}
	return set.Get(path)
}

func (m *effectManager) StoreCompiledEffect(e effect.Effect, path common.RenderPath, compiled *CompiledEffect) error {
	set, ok := m.registry[e.ID()]
	if !ok {
		return fmt.Errorf("%w: %s", ErrEffectNotRegistered, e.ID())
	}
	for _, dropped := range set.store(path, compiled) {
		m.release(dropped)
	}
	return nil
}

func (m *effectManager) EnsureCompiled(e effect.Effect, path common.RenderPath) (*CompiledEffect, error) {
	set, ok := m.registry[e.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEffectNotRegistered, e.ID())
	}
	if c, ok := set.Get(path); ok {
		return c, nil
	}

	c, err := Compile(m.backend, m.pp, e, path)
	if err != nil {
		m.logger.Warn("effect compilation failed",
			zap.Stringer("effect", e.ID()),
			zap.Stringer("path", path),
			zap.Error(err),
		)
		return nil, err
	}
	if err := m.StoreCompiledEffect(e, path, c); err != nil {
		return nil, err
	}
	m.logger.Debug("effect compiled", zap.Stringer("effect", e.ID()), zap.Stringer("path", path))
	return c, nil
}

func (m *effectManager) PrepareSources(effects []effect.Effect, path common.RenderPath) (map[uuid.UUID][]backend.ProgramSource, error) {
	if m.released {
		return nil, ErrReleased
	}
	out := make(map[uuid.UUID][]backend.ProgramSource, len(effects))
	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		errs []error
	)

	for i, e := range effects {
		wg.Add(1)
		eCap := e
		m.pool.SubmitTask(worker.Task{
			ID: i,
			Do: func() (any, error) {
				defer wg.Done()

				sources, err := prepareSources(m.pp, eCap, path)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					errs = append(errs, err)
					return nil, nil
				}
				out[eCap.ID()] = sources
				return nil, nil
			},
		})
	}
	wg.Wait()

	return out, errors.Join(errs...)
}

func (m *effectManager) CompileRegistered(path common.RenderPath) error {
	var todo []effect.Effect
	for _, id := range m.order {
		set := m.registry[id]
		if _, ok := set.Get(path); ok {
			continue
		}
		todo = append(todo, set.effect)
	}
	if len(todo) == 0 {
		return nil
	}

	prepared, prepErr := m.PrepareSources(todo, path)
	errs := []error{prepErr}

	compiled := 0
	for _, e := range todo {
		sources, ok := prepared[e.ID()]
		if !ok {
			continue
		}
		c, err := compileSources(m.backend, e, path, dependsOnPath(m.pp, e), sources)
		if err != nil {
			m.logger.Warn("effect compilation failed",
				zap.Stringer("effect", e.ID()),
				zap.Stringer("path", path),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		if err := m.StoreCompiledEffect(e, path, c); err != nil {
			errs = append(errs, err)
			continue
		}
		compiled++
	}

	m.logger.Debug("batch compilation finished",
		zap.Stringer("path", path),
		zap.Int("requested", len(todo)),
		zap.Int("compiled", compiled),
	)
	return errors.Join(errs...)
}

func (m *effectManager) Cleanup() []uuid.UUID {
	if len(m.pending) == 0 {
		return nil
	}

	removed := make([]uuid.UUID, 0, len(m.pending))
	for len(m.pending) > 0 {
		last := len(m.pending) - 1
		id := m.pending[last]
		m.pending = m.pending[:last]
		delete(m.pendingSet, id)

		set, ok := m.registry[id]
		if !ok {
			continue
		}
		delete(m.registry, id)
		m.removeFromOrder(id)
		if set.unsubscribe != nil {
			set.unsubscribe()
		}
		for _, c := range set.distinct() {
			m.release(c)
		}
		removed = append(removed, id)
		m.logger.Debug("effect removed", zap.Stringer("effect", id))
	}
	return removed
}

func (m *effectManager) Release() {
	if m.released {
		return
	}
	m.released = true
	m.pool.Stop()

	for _, id := range slices.Backward(m.order) {
		set := m.registry[id]
		if set.unsubscribe != nil {
			set.unsubscribe()
		}
		for _, c := range set.distinct() {
			m.release(c)
		}
	}
	m.logger.Debug("effect manager released", zap.Int("effects", len(m.registry)))

	clear(m.registry)
	clear(m.pendingSet)
	m.order = nil
	m.pending = nil
}

func (m *effectManager) Len() int {
	return len(m.registry)
}

func (m *effectManager) PendingLen() int {
	return len(m.pending)
}

func (m *effectManager) release(c *CompiledEffect) {
	for _, h := range c.Programs() {
		m.backend.ReleaseProgram(h)
	}
}

func (m *effectManager) removeFromOrder(id uuid.UUID) {
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			return
		}
	}
}
