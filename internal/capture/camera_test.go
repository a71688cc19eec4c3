package capture

import (
	"errors"
	"testing"
)

func TestCameraConfig_Defaults(t *testing.T) {
	tests := []struct {
		name string
		in   CameraConfig
		want CameraConfig
	}{
		{
			name: "zero values",
			in:   CameraConfig{},
			want: CameraConfig{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS},
		},
		{
			name: "explicit values kept",
			in:   CameraConfig{DeviceID: 2, Width: 1280, Height: 720, FPS: 60, Mirror: true},
			want: CameraConfig{DeviceID: 2, Width: 1280, Height: 720, FPS: 60, Mirror: true},
		},
		{
			name: "negative rate",
			in:   CameraConfig{FPS: -5},
			want: CameraConfig{Width: DefaultWidth, Height: DefaultHeight, FPS: DefaultFPS},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.in.withDefaults(); got != tt.want {
				t.Errorf("withDefaults() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCamera_NotOpened(t *testing.T) {
	cam := NewCamera(CameraConfig{Mirror: true})

	if cam.IsOpen() {
		t.Error("IsOpen() should return false before Open() is called")
	}

	if _, err := cam.ReadFrame(); !errors.Is(err, ErrCameraNotOpen) {
		t.Errorf("ReadFrame() error = %v, want ErrCameraNotOpen", err)
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() on unopened camera = %v, want nil", err)
	}
}

func TestCamera_OpenClose_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	cam := NewCamera(CameraConfig{Mirror: true})

	if err := cam.Open(); err != nil {
		t.Skipf("skipping test - camera not available: %v", err)
	}

	if !cam.IsOpen() {
		t.Error("IsOpen() should return true after Open()")
	}

	mat, err := cam.ReadFrame()
	if err != nil {
		t.Errorf("ReadFrame() failed: %v", err)
	} else {
		if mat.Empty() {
			t.Error("ReadFrame() returned empty mat")
		}
		if mat.Cols() != DefaultWidth || mat.Rows() != DefaultHeight {
			t.Logf("frame is %dx%d; the camera ignored the requested size", mat.Cols(), mat.Rows())
		}
		mat.Close()
	}

	if err := cam.Close(); err != nil {
		t.Errorf("Close() failed: %v", err)
	}
	if cam.IsOpen() {
		t.Error("IsOpen() should return false after Close()")
	}
}
