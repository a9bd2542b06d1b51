package statistics

import "testing"

func TestScaleInverseIsActualInverse(t *testing.T) {
	for s := 2; s <= 10; s++ {
		n := float64(2*s + 1)
		sf := float64(s)
		a := sf * (sf + 1) * (2*sf + 1) / 6
		b := 2 * a
		c := (sf * (sf + 1) / 2) * (sf * (sf + 1) / 2)
		d := sf * (sf + 1) * (2*sf + 1) * (3*sf*sf+3*sf-1) / 30
		m := [4][4]float64{
			{n, 0, a, a},
			{0, b, -c, c},
			{a, -c, d, 0},
			{a, c, 0, d},
		}

		inv := Inverse(s).Full()

		var product [4][4]float64
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				var sum float64
				for k := 0; k < 4; k++ {
					sum += m[i][k] * inv[k][j]
				}
				product[i][j] = sum
			}
		}

		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				want := 0.0
				if i == j {
					want = 1.0
				}
				if diff := product[i][j] - want; diff > 1e-6 || diff < -1e-6 {
					t.Fatalf("scale %d: M*Inv[%d][%d] = %v, want %v", s, i, j, product[i][j], want)
				}
			}
		}
	}
}

func TestScaleInverseOutOfRange(t *testing.T) {
	if inv := Inverse(0); inv != (ScaleInverse{}) {
		t.Fatalf("scale 0 should return zero value, got %+v", inv)
	}
	if inv := Inverse(1000); inv != (ScaleInverse{}) {
		t.Fatalf("scale above MaxScale should return zero value, got %+v", inv)
	}
}

func TestScaledDistanceWeightsShapeAndLength(t *testing.T) {
	w := ScaledDistanceWeights(6)
	if len(w) != 2*(2*6+1) {
		t.Fatalf("expected length %d, got %d", 2*(2*6+1), len(w))
	}
	// center weight (x=0) should be the minimum, close to 1.
	mid := len(w) / 2
	if w[mid] > 1.01 {
		t.Fatalf("center weight should be near 1, got %v", w[mid])
	}
	for _, v := range w {
		if v < 1 || v > 2.01 {
			t.Fatalf("weight out of expected [1,2] range: %v", v)
		}
	}
}
