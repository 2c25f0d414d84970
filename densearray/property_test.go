package densearray

import (
	"bytes"
	"encoding/binary"
	"math/rand/v2"
	"testing"
)

// TestRandomWalk mirrors every operation on a map and checks the whole
// structure after each step.
func TestRandomWalk(t *testing.T) {

	const elementSize = 12

	for seed := uint64(1); seed <= 8; seed++ {
		rnd := rand.New(rand.NewPCG(seed, seed*7919))

		d := mustNew(elementSize)
		model := map[Handle][]byte{}
		handles := []Handle{}
		serial := uint32(0)

		check := func(step int) {
			if err := d.Validate(); err != nil {
				t.Fatalf("seed %d step %d: %s", seed, step, err)
			}
			if d.Len() != len(model) {
				t.Fatalf("seed %d step %d: len %d, want %d", seed, step, d.Len(), len(model))
			}
			if len(d.Bytes()) != len(model)*elementSize {
				t.Fatalf("seed %d step %d: packed region holds %d bytes", seed, step, len(d.Bytes()))
			}
			for h, want := range model {
				got, err := d.Peek(h)
				if err != nil {
					t.Fatalf("seed %d step %d: handle %d: %s", seed, step, h, err)
				}
				if !bytes.Equal(got, want) {
					t.Fatalf("seed %d step %d: handle %d holds %x, want %x", seed, step, h, got, want)
				}
			}
		}

		for step := 0; step < 2000; step++ {
			switch op := rnd.IntN(10); {
			case op < 5 || len(handles) == 0:
				serial++
				payload := make([]byte, elementSize)
				binary.LittleEndian.PutUint32(payload, serial)
				binary.LittleEndian.PutUint64(payload[4:], rnd.Uint64())

				capBefore := d.Cap()
				h, err := d.AddAndFill(payload)
				if err != nil {
					t.Fatalf("seed %d step %d: add: %s", seed, step, err)
				}
				if _, exists := model[h]; exists {
					t.Fatalf("seed %d step %d: handle %d issued twice", seed, step, h)
				}
				if capBefore < d.Cap() && capBefore > 0 && d.Cap() != 2*capBefore {
					t.Fatalf("seed %d step %d: grew from %d to %d", seed, step, capBefore, d.Cap())
				}
				model[h] = payload
				handles = append(handles, h)

			case op < 9:
				i := rnd.IntN(len(handles))
				h := handles[i]
				handles[i] = handles[len(handles)-1]
				handles = handles[:len(handles)-1]
				delete(model, h)

				capBefore := d.Cap()
				if err := d.Remove(h); err != nil {
					t.Fatalf("seed %d step %d: remove %d: %s", seed, step, h, err)
				}
				if d.Cap() != capBefore {
					t.Fatalf("seed %d step %d: capacity changed on remove", seed, step)
				}
				if d.Live(h) {
					t.Fatalf("seed %d step %d: removed handle %d still live", seed, step, h)
				}

			default:
				n := d.Cap() + rnd.IntN(40)
				if err := d.Reserve(n); err != nil {
					t.Fatalf("seed %d step %d: reserve %d: %s", seed, step, n, err)
				}
			}

			check(step)
		}

		d.Destroy()
	}
}

func BenchmarkAddRemove(b *testing.B) {
	d := mustNew(60)
	payload := make([]byte, 60)

	handles := make([]Handle, 0, 1024)
	for i := 0; i < 1024; i++ {
		h, _ := d.AddAndFill(payload)
		handles = append(handles, h)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		j := i % len(handles)
		d.Remove(handles[j])
		handles[j], _ = d.AddAndFill(payload)
	}
}

func BenchmarkGet(b *testing.B) {
	d := mustNew(60, WithoutDirtyTracking())
	h, _ := d.Add()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		d.Get(h)
	}
}
