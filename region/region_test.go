package region_test

import (
	"errors"
	"testing"

	"github.com/karlbohlmark/zipc/region"
)

func TestCreateThenAttach(t *testing.T) {
	name := "/zipc-region-test"
	_ = region.Unlink(name)
	defer region.Unlink(name)

	r, err := region.Create(name, 64, 1024)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	if r.Header().InitFlag.Load() != 1 {
		t.Fatalf("InitFlag: got %d, want 1", r.Header().InitFlag.Load())
	}
	if r.Header().Head.Load() != 0 || r.Header().Tail.Load() != 0 {
		t.Fatalf("freshly created region is not zero-initialized")
	}

	attached, err := region.Attach(name, 64, 1024)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer attached.Close()

	if attached.QueueSize() != 64 || attached.MessageSize() != 1024 {
		t.Fatalf("attached region params mismatch: %d/%d", attached.QueueSize(), attached.MessageSize())
	}
}

func TestAttachParamMismatch(t *testing.T) {
	name := "/zipc-region-mismatch"
	_ = region.Unlink(name)
	defer region.Unlink(name)

	r, err := region.Create(name, 64, 1024)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	defer r.Close()

	if _, err := region.Attach(name, 64, 2048); !errors.Is(err, region.ErrParamMismatch) {
		t.Fatalf("Attach with mismatched message size: got %v, want ErrParamMismatch", err)
	}
}

func TestAttachMissingRegion(t *testing.T) {
	name := "/zipc-region-missing"
	_ = region.Unlink(name)

	if _, err := region.Attach(name, 64, 1024); err == nil {
		t.Fatalf("Attach on missing region: want an error")
	}
}

func TestQueueSizeMustBePowerOfTwo(t *testing.T) {
	name := "/zipc-region-badsize"
	_ = region.Unlink(name)
	defer region.Unlink(name)

	if _, err := region.Create(name, 63, 1024); !errors.Is(err, region.ErrQueueSizeInvalid) {
		t.Fatalf("Create with non-power-of-two size: got %v, want ErrQueueSizeInvalid", err)
	}
}

func TestNameValidation(t *testing.T) {
	cases := []struct {
		name    string
		wantErr error
	}{
		{"no-leading-slash", region.ErrNameInvalid},
		{"/", nil},
		{"/" + string(make([]byte, region.MaxNameLen)), region.ErrNameTooLong},
	}
	for _, c := range cases {
		_, err := region.ShmPath(c.name)
		if c.wantErr == nil && err != nil {
			t.Errorf("ShmPath(%q): got %v, want nil", c.name, err)
		}
		if c.wantErr != nil && !errors.Is(err, c.wantErr) {
			t.Errorf("ShmPath(%q): got %v, want %v", c.name, err, c.wantErr)
		}
	}
}

func TestUnlinkIsIdempotent(t *testing.T) {
	name := "/zipc-region-idempotent"
	if err := region.Unlink(name); err != nil {
		t.Fatalf("Unlink on missing region: %v", err)
	}
	r, err := region.Create(name, 2, 8)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	r.Close()

	if err := region.Unlink(name); err != nil {
		t.Fatalf("first Unlink: %v", err)
	}
	if err := region.Unlink(name); err != nil {
		t.Fatalf("second Unlink: %v", err)
	}
}
