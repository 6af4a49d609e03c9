package vm

import (
	"github.com/hexe-lang/hexe/object"
	"github.com/hexe-lang/hexe/op"
	"github.com/rs/zerolog"
)

// StepMode controls when OnStep callbacks are triggered.
type StepMode uint8

const (
	// StepAll calls OnStep for every instruction.
	StepAll StepMode = iota

	// StepNone never calls OnStep.
	// Use for: observers that only need Call/Return events.
	StepNone

	// StepSampled calls OnStep every N instructions.
	StepSampled
)

// ObserverConfig specifies what events an observer wants to receive.
// Use NewObserverConfig() to create configs with safe defaults.
type ObserverConfig struct {
	// StepMode controls OnStep callback frequency.
	StepMode StepMode

	// SampleInterval is the number of instructions between OnStep calls
	// when StepMode is StepSampled. Values <= 0 are treated as 1.
	SampleInterval int

	// ObserveCalls enables OnCall callbacks.
	ObserveCalls bool

	// ObserveReturns enables OnReturn callbacks.
	ObserveReturns bool
}

// NewObserverConfig creates a config with safe defaults.
// ObserveCalls and ObserveReturns default to true.
func NewObserverConfig(mode StepMode) ObserverConfig {
	return ObserverConfig{
		StepMode:       mode,
		SampleInterval: 1000,
		ObserveCalls:   true,
		ObserveReturns: true,
	}
}

// NormalizeConfig validates and clamps config values.
func NormalizeConfig(cfg ObserverConfig) ObserverConfig {
	if cfg.StepMode == StepSampled && cfg.SampleInterval <= 0 {
		cfg.SampleInterval = 1
	}
	return cfg
}

// Observer receives VM execution events. Implementations can embed
// NoOpObserver and override only the methods they need.
//
// Observer methods are called synchronously during execution. Returning
// false from any of them halts execution with an E3013 runtime error.
type Observer interface {
	// Config returns the observer's configuration. Called once per Execute.
	Config() ObserverConfig

	// OnStep is called before an instruction executes, as selected by the
	// StepMode.
	OnStep(event StepEvent) bool

	// OnCall is called after a Call has entered the callee's window.
	OnCall(event CallEvent) bool

	// OnReturn is called after a Return has restored the caller's window.
	OnReturn(event ReturnEvent) bool
}

// StepEvent describes the instruction about to execute.
type StepEvent struct {
	// IP is the byte offset of the instruction.
	IP int

	// Opcode is the operation being executed.
	Opcode op.Code

	// OpcodeName is the human-readable name of the opcode.
	OpcodeName string

	// FrameOffset is the index of the current window's first register.
	FrameOffset int

	// FrameDepth is the current depth of the call stack.
	FrameDepth int
}

// CallEvent describes a function call.
type CallEvent struct {
	// CallSite is the byte offset of the Call instruction.
	CallSite int

	// Address is the entry address of the callee.
	Address int

	// WindowSize is the number of registers of the caller's window.
	WindowSize int

	// FrameDepth is the call stack depth after the call.
	FrameDepth int
}

// ReturnEvent describes a function return.
type ReturnEvent struct {
	// ReturnAddr is the byte offset execution resumes at.
	ReturnAddr int

	// Value is the content of the return slot.
	Value object.Value

	// FrameDepth is the call stack depth after returning.
	FrameDepth int
}

// NoOpObserver is an Observer implementation that does nothing. It uses
// StepAll mode with calls and returns enabled.
type NoOpObserver struct{}

func (NoOpObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (NoOpObserver) OnStep(StepEvent) bool     { return true }
func (NoOpObserver) OnCall(CallEvent) bool     { return true }
func (NoOpObserver) OnReturn(ReturnEvent) bool { return true }

var _ Observer = NoOpObserver{}

// TraceObserver logs every execution event at debug level.
type TraceObserver struct {
	logger zerolog.Logger
}

// NewTraceObserver returns an Observer that writes events to logger.
func NewTraceObserver(logger zerolog.Logger) *TraceObserver {
	return &TraceObserver{logger: logger}
}

func (o *TraceObserver) Config() ObserverConfig {
	return NewObserverConfig(StepAll)
}

func (o *TraceObserver) OnStep(e StepEvent) bool {
	o.logger.Debug().
		Int("ip", e.IP).
		Str("op", e.OpcodeName).
		Int("frame_offset", e.FrameOffset).
		Int("depth", e.FrameDepth).
		Msg("step")
	return true
}

func (o *TraceObserver) OnCall(e CallEvent) bool {
	o.logger.Debug().
		Int("call_site", e.CallSite).
		Int("address", e.Address).
		Int("window", e.WindowSize).
		Int("depth", e.FrameDepth).
		Msg("call")
	return true
}

func (o *TraceObserver) OnReturn(e ReturnEvent) bool {
	o.logger.Debug().
		Int("return_addr", e.ReturnAddr).
		Str("value", e.Value.String()).
		Int("depth", e.FrameDepth).
		Msg("return")
	return true
}
