package actuator

import (
	"errors"
	"testing"
)

func TestRam_Defaults(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)

	if got := r.Position(); got != 0 {
		t.Errorf("Position() = %d, want 0", got)
	}
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() = %v, want %v", got, MotionRetracted)
	}
	if got := r.Speed(); got != 5 {
		t.Errorf("Speed() = %d, want 5", got)
	}
	if got := r.Travel(); got != 250 {
		t.Errorf("Travel() = %d, want 250", got)
	}
	if r.Ready() {
		t.Error("Ready() = true, want false before Initialize()")
	}
}

func TestRam_TravelFallback(t *testing.T) {
	tests := []struct {
		name   string
		travel int
		want   int
	}{
		{"zero", 0, 200},
		{"negative", -50, 200},
		{"explicit", 300, 300},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRam("DoorActuator_test", tt.travel)
			if got := r.Travel(); got != tt.want {
				t.Errorf("Travel() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRam_Initialize(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)

	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() = %v, want %v", got, MotionRetracted)
	}
	if got := r.Position(); got != 0 {
		t.Errorf("Position() = %d, want 0", got)
	}
	if !r.Ready() {
		t.Error("Ready() = false after Initialize()")
	}
}

func TestRam_InitializeIdempotent(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)

	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := r.Extend(); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	// Re-initialising homes the ram back to retracted.
	if err := r.Initialize(); err != nil {
		t.Fatalf("second Initialize() error = %v", err)
	}
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() = %v, want %v", got, MotionRetracted)
	}
	if got := r.Position(); got != 0 {
		t.Errorf("Position() = %d, want 0", got)
	}
}

func TestRam_ExtendUninitialized(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)

	err := r.Extend()
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Extend() error = %v, want ErrNotInitialized", err)
	}
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() after failed Extend() = %v, want unchanged %v", got, MotionRetracted)
	}
	if got := r.Position(); got != 0 {
		t.Errorf("Position() after failed Extend() = %d, want unchanged 0", got)
	}
}

func TestRam_RetractUninitialized(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)

	if err := r.Retract(); !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("Retract() error = %v, want ErrNotInitialized", err)
	}
}

func TestRam_ExtendRetractRoundTrip(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if err := r.Extend(); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if got := r.State(); got != MotionExtended {
		t.Errorf("State() = %v, want %v", got, MotionExtended)
	}
	if got := r.Position(); got != 100 {
		t.Errorf("Position() = %d, want 100", got)
	}

	if err := r.Retract(); err != nil {
		t.Fatalf("Retract() error = %v", err)
	}
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() = %v, want %v", got, MotionRetracted)
	}
	if got := r.Position(); got != 0 {
		t.Errorf("Position() = %d, want 0", got)
	}
}

func TestRam_ExtendNoOpWhenExtended(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if err := r.Extend(); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}

	if err := r.Extend(); err != nil {
		t.Fatalf("Extend() at target error = %v, want nil no-op", err)
	}
	if got := r.Position(); got != 100 {
		t.Errorf("Position() = %d, want 100", got)
	}
}

func TestRam_RetractNoOpWhenRetracted(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	if err := r.Retract(); err != nil {
		t.Fatalf("Retract() at target error = %v, want nil no-op", err)
	}
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() = %v, want %v", got, MotionRetracted)
	}
}

func TestRam_SetSpeed(t *testing.T) {
	tests := []struct {
		name    string
		speed   int
		wantErr bool
	}{
		{"minimum", 1, false},
		{"maximum", 10, false},
		{"below minimum", 0, true},
		{"above maximum", 11, true},
		{"negative", -3, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRam("DoorActuator_test", 250)
			before := r.Speed()

			err := r.SetSpeed(tt.speed)
			if tt.wantErr {
				if !errors.Is(err, ErrSpeedOutOfRange) {
					t.Fatalf("SetSpeed(%d) error = %v, want ErrSpeedOutOfRange", tt.speed, err)
				}
				if got := r.Speed(); got != before {
					t.Errorf("Speed() after rejected SetSpeed = %d, want unchanged %d", got, before)
				}
				return
			}

			if err != nil {
				t.Fatalf("SetSpeed(%d) error = %v", tt.speed, err)
			}
			if got := r.Speed(); got != tt.speed {
				t.Errorf("Speed() = %d, want %d", got, tt.speed)
			}
		})
	}
}

func TestRam_StopNoOpWhenSettled(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)
	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}

	r.Stop()
	if got := r.State(); got != MotionRetracted {
		t.Errorf("State() after Stop() at rest = %v, want %v", got, MotionRetracted)
	}

	if err := r.Extend(); err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	r.Stop()
	if got := r.State(); got != MotionExtended {
		t.Errorf("State() after Stop() when extended = %v, want %v", got, MotionExtended)
	}
}

func TestRam_StopMidTravel(t *testing.T) {
	// Motion completes synchronously through the public API, so mid-travel
	// interruption is staged directly on the struct.
	tests := []struct {
		name     string
		state    MotionState
		position int
		want     MotionState
	}{
		{"past midpoint extending", MotionExtending, 60, MotionExtended},
		{"before midpoint extending", MotionExtending, 40, MotionRetracted},
		{"exactly at midpoint", MotionExtending, 50, MotionRetracted},
		{"past midpoint retracting", MotionRetracting, 75, MotionExtended},
		{"before midpoint retracting", MotionRetracting, 10, MotionRetracted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRam("DoorActuator_test", 250)
			if err := r.Initialize(); err != nil {
				t.Fatalf("Initialize() error = %v", err)
			}
			r.state = tt.state
			r.position = tt.position

			r.Stop()

			if got := r.State(); got != tt.want {
				t.Errorf("State() after Stop() at %d = %v, want %v", tt.position, got, tt.want)
			}
			if got := r.Position(); got != tt.position {
				t.Errorf("Position() after Stop() = %d, want held at %d", got, tt.position)
			}
		})
	}
}

func TestRam_Ready(t *testing.T) {
	r := NewRam("DoorActuator_test", 250)

	if r.Ready() {
		t.Error("Ready() = true before Initialize()")
	}

	if err := r.Initialize(); err != nil {
		t.Fatalf("Initialize() error = %v", err)
	}
	if !r.Ready() {
		t.Error("Ready() = false after Initialize()")
	}

	r.state = MotionError
	if r.Ready() {
		t.Error("Ready() = true in error state, want false")
	}
}

func TestMotionState_String(t *testing.T) {
	tests := []struct {
		state MotionState
		want  string
	}{
		{MotionRetracted, "retracted"},
		{MotionExtending, "extending"},
		{MotionExtended, "extended"},
		{MotionRetracting, "retracting"},
		{MotionError, "error"},
		{MotionState(42), "MotionState(42)"},
	}

	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("MotionState(%d).String() = %q, want %q", uint8(tt.state), got, tt.want)
		}
	}
}

func TestMotionState_Settled(t *testing.T) {
	tests := []struct {
		state MotionState
		want  bool
	}{
		{MotionRetracted, true},
		{MotionExtended, true},
		{MotionExtending, false},
		{MotionRetracting, false},
		{MotionError, false},
	}

	for _, tt := range tests {
		if got := tt.state.Settled(); got != tt.want {
			t.Errorf("%v.Settled() = %t, want %t", tt.state, got, tt.want)
		}
	}
}

func TestMotionState_MarshalJSON(t *testing.T) {
	got, err := MotionExtended.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON() error = %v", err)
	}
	if string(got) != `"extended"` {
		t.Errorf("MarshalJSON() = %s, want %q", got, `"extended"`)
	}
}
