package pose

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const epsilon = 1e-9

// standingFrame is a front-facing standing pose in image-relative coordinates.
func standingFrame() Frame {
	return Frame{
		LeftShoulder:  {X: 0.60, Y: 0.30, Z: -0.10},
		RightShoulder: {X: 0.40, Y: 0.30, Z: -0.10},
		LeftElbow:     {X: 0.65, Y: 0.45, Z: -0.05},
		RightElbow:    {X: 0.35, Y: 0.45, Z: -0.05},
		LeftWrist:     {X: 0.66, Y: 0.58, Z: -0.08},
		RightWrist:    {X: 0.34, Y: 0.58, Z: -0.08},
		LeftHip:       {X: 0.56, Y: 0.60, Z: 0.00},
		RightHip:      {X: 0.44, Y: 0.60, Z: 0.00},
		LeftKnee:      {X: 0.57, Y: 0.78, Z: 0.02},
		RightKnee:     {X: 0.43, Y: 0.78, Z: 0.02},
		LeftAnkle:     {X: 0.57, Y: 0.95, Z: 0.05},
		RightAnkle:    {X: 0.43, Y: 0.95, Z: 0.05},
	}
}

// armsRaisedFrame is standingFrame with both arms raised overhead.
func armsRaisedFrame() Frame {
	f := standingFrame()
	f[LeftElbow] = Point3D{X: 0.66, Y: 0.16, Z: -0.05}
	f[RightElbow] = Point3D{X: 0.34, Y: 0.16, Z: -0.05}
	f[LeftWrist] = Point3D{X: 0.68, Y: 0.03, Z: -0.08}
	f[RightWrist] = Point3D{X: 0.32, Y: 0.03, Z: -0.08}
	return f
}

func canonical(t *testing.T, f Frame) *Canonical {
	t.Helper()
	c, err := Normalize(f)
	require.NoError(t, err)
	return c
}

func TestNormalize(t *testing.T) {
	t.Run("mid hip is exactly the origin", func(t *testing.T) {
		c := canonical(t, standingFrame())

		mid, ok := c.Point(MidHip)
		require.True(t, ok)
		assert.Equal(t, Point3D{}, mid)
	})

	t.Run("real joints have unit L2 norm", func(t *testing.T) {
		c := canonical(t, standingFrame())

		var sum float64
		for _, j := range Joints {
			p, ok := c.Point(j)
			require.True(t, ok, "joint %s missing", j)
			sum += p.X*p.X + p.Y*p.Y + p.Z*p.Z
		}
		assert.InDelta(t, 1.0, sum, epsilon)
	})

	t.Run("hips are symmetric around the anchor", func(t *testing.T) {
		c := canonical(t, standingFrame())

		left, _ := c.Point(LeftHip)
		right, _ := c.Point(RightHip)
		assert.InDelta(t, 0, left.X+right.X, epsilon)
		assert.InDelta(t, 0, left.Y+right.Y, epsilon)
	})

	t.Run("missing hip is reported", func(t *testing.T) {
		for _, hip := range []Joint{LeftHip, RightHip} {
			f := standingFrame()
			delete(f, hip)

			c, err := Normalize(f)
			assert.ErrorIs(t, err, ErrMissingAnchorJoint)
			assert.Contains(t, err.Error(), string(hip))
			assert.Nil(t, c)
			assert.Nil(t, NormalizeOrNil(f))
		}
	})

	t.Run("nil frame is missing its anchor", func(t *testing.T) {
		_, err := Normalize(nil)
		assert.ErrorIs(t, err, ErrMissingAnchorJoint)
	})

	t.Run("degenerate pose floors the norm", func(t *testing.T) {
		f := Frame{}
		for _, j := range Joints {
			f[j] = Point3D{}
		}

		c := canonical(t, f)
		for _, j := range Joints {
			p, _ := c.Point(j)
			assert.False(t, math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsNaN(p.Z), "joint %s is NaN", j)
			assert.Equal(t, Point3D{}, p)
		}
	})

	t.Run("scale invariant", func(t *testing.T) {
		base := canonical(t, standingFrame())

		for _, k := range []float64{0.01, 0.5, 3, 640} {
			scaled := canonical(t, standingFrame().Scale(k))
			for _, j := range Joints {
				want, _ := base.Point(j)
				got, _ := scaled.Point(j)
				assert.InDelta(t, want.X, got.X, 1e-9, "k=%v joint=%s", k, j)
				assert.InDelta(t, want.Y, got.Y, 1e-9, "k=%v joint=%s", k, j)
				assert.InDelta(t, want.Z, got.Z, 1e-9, "k=%v joint=%s", k, j)
			}
		}
	})

	t.Run("idempotent on canonical input", func(t *testing.T) {
		once := canonical(t, standingFrame())
		twice := canonical(t, once.Frame())

		for _, j := range append(Joints[:], MidHip) {
			want, _ := once.Point(j)
			got, _ := twice.Point(j)
			assert.InDelta(t, want.X, got.X, 1e-12)
			assert.InDelta(t, want.Y, got.Y, 1e-12)
			assert.InDelta(t, want.Z, got.Z, 1e-12)
		}
	})

	t.Run("unknown joints are dropped", func(t *testing.T) {
		f := standingFrame()
		f["left_eye"] = Point3D{X: 9, Y: 9, Z: 9}

		c := canonical(t, f)
		_, ok := c.Point("left_eye")
		assert.False(t, ok)
		assert.Equal(t, len(Joints)+1, c.Len())
	})

	t.Run("input is not modified", func(t *testing.T) {
		f := standingFrame()
		_ = canonical(t, f)
		assert.Equal(t, standingFrame(), f)
	})
}

func TestScoreSingle(t *testing.T) {
	t.Run("identical poses score 100", func(t *testing.T) {
		for _, f := range []Frame{standingFrame(), armsRaisedFrame()} {
			p := canonical(t, f)
			assert.Equal(t, 100.0, ScoreSingle(p, p))
		}
	})

	t.Run("nil pose scores 0", func(t *testing.T) {
		p := canonical(t, standingFrame())
		assert.Equal(t, 0.0, ScoreSingle(nil, p))
		assert.Equal(t, 0.0, ScoreSingle(p, nil))
		assert.Equal(t, 0.0, ScoreSingle(nil, nil))
	})

	t.Run("different arms lower the score", func(t *testing.T) {
		standing := canonical(t, standingFrame())
		raised := canonical(t, armsRaisedFrame())

		score := ScoreSingle(standing, raised)
		assert.Less(t, score, 100.0)
		assert.GreaterOrEqual(t, score, 0.0)
	})

	t.Run("result has two decimals", func(t *testing.T) {
		score := ScoreSingle(canonical(t, standingFrame()), canonical(t, armsRaisedFrame()))
		assert.InDelta(t, score, math.Round(score*100)/100, epsilon)
	})
}

func TestScorer_Shape(t *testing.T) {
	s := NewScorer(DefaultParams())

	tests := []struct {
		angle float64
		want  float64
	}{
		{angle: 0, want: 100},
		{angle: 5, want: 100},
		{angle: 15, want: 95},
		{angle: 45, want: 80},
		{angle: 180, want: 12.5},
		{angle: 500, want: 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, s.shape(tt.angle), epsilon, "angle %v", tt.angle)
	}
}

func TestScorer_SingleBreakdown(t *testing.T) {
	s := NewScorer(DefaultParams())

	t.Run("limb rotated 15 degrees scores 95", func(t *testing.T) {
		rad := 15 * math.Pi / 180
		subject := &Canonical{points: map[Joint]Point3D{
			LeftShoulder: {X: 0, Y: 0, Z: 0},
			LeftElbow:    {X: 1, Y: 0, Z: 0},
		}}
		reference := &Canonical{points: map[Joint]Point3D{
			LeftShoulder: {X: 0, Y: 0, Z: 0},
			LeftElbow:    {X: math.Cos(rad), Y: math.Sin(rad), Z: 0},
		}}

		b := s.SingleBreakdown(subject, reference)

		require.Len(t, b.Limbs, len(Limbs))
		upperArm := b.Limbs[0]
		assert.Equal(t, "left_upper_arm", upperArm.Limb.Name)
		assert.Equal(t, LimbComputed, upperArm.Status)
		assert.InDelta(t, 15.0, upperArm.Angle, 1e-9)
		assert.InDelta(t, 95.0, upperArm.Score, 1e-9)
	})

	t.Run("missing joint zeroes only its limbs", func(t *testing.T) {
		reference := canonical(t, standingFrame())
		f := standingFrame()
		delete(f, LeftWrist)
		subject := canonical(t, f)

		b := s.SingleBreakdown(subject, reference)

		for _, l := range b.Limbs {
			if l.Limb.Name == "left_lower_arm" {
				assert.Equal(t, LimbMissingJoint, l.Status)
				assert.Equal(t, 0.0, l.Score)
				continue
			}
			assert.Equal(t, LimbComputed, l.Status, l.Limb.Name)
			assert.Equal(t, 100.0, l.Score, l.Limb.Name)
		}
		// (7 limbs * 0.1 * 100 + 1.0 * 100) / 1.8
		assert.Equal(t, 94.44, b.Score)
	})

	t.Run("missing shoulders zero the direction", func(t *testing.T) {
		reference := canonical(t, standingFrame())
		f := standingFrame()
		delete(f, RightShoulder)
		subject := canonical(t, f)

		b := s.SingleBreakdown(subject, reference)
		assert.Equal(t, LimbMissingJoint, b.Direction.Status)
		assert.Equal(t, 0.0, b.Direction.Score)
	})

	t.Run("mirrored shoulders are 180 degrees apart", func(t *testing.T) {
		reference := canonical(t, standingFrame())
		f := standingFrame()
		f[LeftShoulder], f[RightShoulder] = f[RightShoulder], f[LeftShoulder]
		subject := canonical(t, f)

		b := s.SingleBreakdown(subject, reference)
		assert.InDelta(t, 180.0, math.Abs(b.Direction.Angle), 1e-9)
		assert.InDelta(t, 12.5, b.Direction.Score, 1e-9)
	})

	t.Run("nil pose gives empty breakdown", func(t *testing.T) {
		b := s.SingleBreakdown(nil, canonical(t, standingFrame()))
		assert.Empty(t, b.Limbs)
		assert.Equal(t, 0.0, b.Score)
	})
}

func TestWrapDegrees(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{in: 0, want: 0},
		{in: 90, want: 90},
		{in: 190, want: -170},
		{in: -190, want: 170},
		{in: 360, want: 0},
		{in: -720, want: 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, wrapDegrees(tt.in), epsilon, "in %v", tt.in)
	}
}

func TestScoreDouble(t *testing.T) {
	standing := canonical(t, standingFrame())
	raised := canonical(t, armsRaisedFrame())

	t.Run("beta zero equals single frame", func(t *testing.T) {
		cases := [][4]*Canonical{
			{raised, standing, raised, standing},
			{raised, standing, standing, raised},
			{standing, raised, raised, raised},
		}
		for _, c := range cases {
			assert.Equal(t, ScoreSingle(c[0], c[2]), ScoreDouble(c[0], c[1], c[2], c[3], 0))
		}
	})

	t.Run("matching motion and pose scores 100", func(t *testing.T) {
		s := NewScorer(DefaultParams())
		b := s.DoubleBreakdown(raised, standing, raised, standing)

		assert.Equal(t, 100.0, b.Base)
		assert.InDelta(t, 100.0, b.Motion, epsilon)
		assert.Equal(t, len(Limbs), b.LimbsUsed)
		assert.Equal(t, 100.0, b.Score)
	})

	t.Run("opposite motion lowers the motion term", func(t *testing.T) {
		s := NewScorer(DefaultParams())
		b := s.DoubleBreakdown(raised, standing, raised, raised)

		assert.Equal(t, 100.0, b.Base)
		assert.Less(t, b.Motion, 100.0)
		assert.Less(t, b.Score, 100.0)
	})

	t.Run("any nil frame scores 0", func(t *testing.T) {
		assert.Equal(t, 0.0, ScoreDouble(nil, standing, standing, standing, 0.1))
		assert.Equal(t, 0.0, ScoreDouble(standing, nil, standing, standing, 0.1))
		assert.Equal(t, 0.0, ScoreDouble(standing, standing, nil, standing, 0.1))
		assert.Equal(t, 0.0, ScoreDouble(standing, standing, standing, nil, 0.1))
	})

	t.Run("no shared joints leaves motion at 0", func(t *testing.T) {
		prev := &Canonical{points: map[Joint]Point3D{MidHip: {}}}
		s := NewScorer(DefaultParams())
		b := s.DoubleBreakdown(standing, prev, standing, prev)

		assert.Equal(t, 0, b.LimbsUsed)
		assert.Equal(t, 0.0, b.Motion)
		assert.Equal(t, 90.0, b.Score)
	})

	t.Run("beta is clamped", func(t *testing.T) {
		assert.Equal(t, ScoreDouble(raised, standing, raised, raised, 1), ScoreDouble(raised, standing, raised, raised, 7))
	})
}

func TestScores_Bounded(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	randomFrame := func() Frame {
		f := Frame{}
		for _, j := range Joints {
			if rng.Float64() < 0.1 && j != LeftHip && j != RightHip {
				continue
			}
			f[j] = Point3D{
				X: (rng.Float64() - 0.5) * 2000,
				Y: (rng.Float64() - 0.5) * 2000,
				Z: (rng.Float64() - 0.5) * 2000,
			}
		}
		return f
	}

	for i := 0; i < 500; i++ {
		un := canonical(t, randomFrame())
		up := canonical(t, randomFrame())
		rn := canonical(t, randomFrame())
		rp := canonical(t, randomFrame())
		beta := rng.Float64()

		single := ScoreSingle(un, rn)
		double := ScoreDouble(un, up, rn, rp, beta)

		assert.GreaterOrEqual(t, single, 0.0)
		assert.LessOrEqual(t, single, 100.0)
		assert.GreaterOrEqual(t, double, 0.0)
		assert.LessOrEqual(t, double, 100.0)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		score float64
		want  Feedback
	}{
		{score: 100, want: Perfect},
		{score: 90, want: Perfect},
		{score: 89.99, want: Good},
		{score: 80.0, want: Good},
		{score: 79.999, want: Normal},
		{score: 75, want: Normal},
		{score: 74.99, want: Bad},
		{score: 60, want: Bad},
		{score: 59.99, want: Worst},
		{score: 0, want: Worst},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.score), "score %v", tt.score)
	}
}

func TestResults(t *testing.T) {
	none := NoPose()
	assert.Equal(t, 0.0, none.Score)
	assert.Equal(t, Worst, none.Feedback)
	assert.False(t, none.Detected)

	r := Evaluate(82.5)
	assert.Equal(t, Good, r.Feedback)
	assert.True(t, r.Detected)
}
