package pose

import "github.com/go-gl/mathgl/mgl64"

// Pose landmark indices following the MediaPipe convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// DefaultVisibility is the confidence below which a landmark is treated
// as absent.
const DefaultVisibility = 0.5

// Landmark is one detected body point in normalized image coordinates.
type Landmark struct {
	X          float64 // [0, 1], left to right
	Y          float64 // [0, 1], top to bottom
	Visibility float64 // [0, 1] detection confidence
}

// Vec returns the landmark position as a vector.
func (l Landmark) Vec() mgl64.Vec2 { return mgl64.Vec2{l.X, l.Y} }

// Visible reports whether the landmark's confidence reaches min.
func (l Landmark) Visible(min float64) bool { return l.Visibility >= min }

// TorsoCenter interpolates between the shoulder midpoint (offset 0) and
// the hip midpoint (offset 1). It reports false when any of the four
// torso landmarks is missing or below minVis, so callers keep their
// previous target instead of snapping to a degenerate origin.
func TorsoCenter(lms []Landmark, offset, minVis float64) (mgl64.Vec2, bool) {
	if len(lms) <= RightHip {
		return mgl64.Vec2{}, false
	}
	ls, rs := lms[LeftShoulder], lms[RightShoulder]
	lh, rh := lms[LeftHip], lms[RightHip]
	if !ls.Visible(minVis) || !rs.Visible(minVis) || !lh.Visible(minVis) || !rh.Visible(minVis) {
		return mgl64.Vec2{}, false
	}

	shoulderMid := ls.Vec().Add(rs.Vec()).Mul(0.5)
	hipMid := lh.Vec().Add(rh.Vec()).Mul(0.5)
	return shoulderMid.Add(hipMid.Sub(shoulderMid).Mul(offset)), true
}

// ShoulderWidth returns the normalized distance between the shoulders.
// It reports false when either shoulder is below minVis.
func ShoulderWidth(lms []Landmark, minVis float64) (float64, bool) {
	if len(lms) <= RightShoulder {
		return 0, false
	}
	ls, rs := lms[LeftShoulder], lms[RightShoulder]
	if !ls.Visible(minVis) || !rs.Visible(minVis) {
		return 0, false
	}
	return rs.Vec().Sub(ls.Vec()).Len(), true
}
