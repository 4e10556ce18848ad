package mobius_test

import (
	"fmt"
	"math"

	"github.com/hyptile/hyptile/mobius"
)

// ExampleTranslation moves the origin two units into the disk and
// shows that composing with the opposite translation returns home.
func ExampleTranslation() {
	f := mobius.Translation(2)
	p := mobius.Apply(f, 0)
	fmt.Printf("image radius: %.4f\n", math.Hypot(real(p), imag(p)))

	round := mobius.Compose(f, mobius.Translation(-2))
	fmt.Println("round trip is identity:", mobius.CloseTo(round, mobius.Identity(), 1e-9))
	// Output:
	// image radius: 0.7616
	// round trip is identity: true
}

// ExampleCompose chains two rotations; angles add.
func ExampleCompose() {
	half := mobius.FromAngle(math.Pi / 2)
	full := mobius.Compose(half, half)
	fmt.Println(mobius.CloseTo(full, mobius.FromAngle(math.Pi), 1e-12))
	// Output:
	// true
}
