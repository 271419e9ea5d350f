package frame

import (
	"testing"
)

func TestPublishIncrementsSequence(t *testing.T) {
	b := NewBuffer(4)

	for want := uint64(1); want <= 3; want++ {
		buf := b.BeginWrite()
		buf[0] = float32(want)
		b.Publish(int(want))

		f := b.Read()
		if f.Seq != want {
			t.Errorf("Seq = %d, want %d", f.Seq, want)
		}
		if f.Live != int(want) {
			t.Errorf("Live = %d, want %d", f.Live, want)
		}
		if f.Data[0] != float32(want) {
			t.Errorf("Data[0] = %v, want %v", f.Data[0], want)
		}
	}
}

func TestReadWithoutPublishIsIdempotent(t *testing.T) {
	b := NewBuffer(2)
	buf := b.BeginWrite()
	buf[OffX] = 7
	b.Publish(1)

	f1 := b.Read()
	f2 := b.Read()

	if f1 != f2 {
		t.Fatal("two reads without a publish returned different frames")
	}
	if f1.Seq != f2.Seq {
		t.Errorf("sequence changed between reads: %d vs %d", f1.Seq, f2.Seq)
	}
	for i := range f1.Data {
		if f1.Data[i] != f2.Data[i] {
			t.Fatalf("attribute %d changed between reads", i)
		}
	}
}

func TestWriterDoesNotTouchPublishedFrame(t *testing.T) {
	b := NewBuffer(1)

	buf := b.BeginWrite()
	buf[OffX] = 1
	b.Publish(1)

	published := b.Read()

	// Writing the next frame must not alter what the reader sees.
	buf = b.BeginWrite()
	buf[OffX] = 999

	if published.Data[OffX] != 1 {
		t.Errorf("published frame mutated during write: %v", published.Data[OffX])
	}
	b.Publish(1)

	if got := b.Read().Data[OffX]; got != 999 {
		t.Errorf("after publish, Data[OffX] = %v, want 999", got)
	}
}

func TestBeginWriteTwicePanics(t *testing.T) {
	b := NewBuffer(1)
	b.BeginWrite()

	defer func() {
		if recover() == nil {
			t.Error("second BeginWrite without Publish did not panic")
		}
	}()
	b.BeginWrite()
}

func TestPublishWithoutBeginWritePanics(t *testing.T) {
	b := NewBuffer(1)

	defer func() {
		if recover() == nil {
			t.Error("Publish without BeginWrite did not panic")
		}
	}()
	b.Publish(0)
}

func TestBufferSizedToCapacity(t *testing.T) {
	b := NewBuffer(10)
	if got := len(b.BeginWrite()); got != 10*Stride {
		t.Errorf("write buffer length = %d, want %d", got, 10*Stride)
	}
	b.Publish(0)
	if got := len(b.Read().Data); got != 10*Stride {
		t.Errorf("read buffer length = %d, want %d", got, 10*Stride)
	}
}
