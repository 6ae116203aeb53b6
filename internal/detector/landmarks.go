package detector

import "github.com/ayusman/natya/internal/pose"

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	LeftShoulderIndex  = 11
	RightShoulderIndex = 12
	LeftElbowIndex     = 13
	RightElbowIndex    = 14
	LeftWristIndex     = 15
	RightWristIndex    = 16
	LeftHipIndex       = 23
	RightHipIndex      = 24
	LeftKneeIndex      = 25
	RightKneeIndex     = 26
	LeftAnkleIndex     = 27
	RightAnkleIndex    = 28
	NumLandmarks       = 33
)

// landmarkJoints maps MediaPipe landmark indices to the scored joints.
var landmarkJoints = map[int]pose.Joint{
	LeftShoulderIndex:  pose.LeftShoulder,
	RightShoulderIndex: pose.RightShoulder,
	LeftElbowIndex:     pose.LeftElbow,
	RightElbowIndex:    pose.RightElbow,
	LeftWristIndex:     pose.LeftWrist,
	RightWristIndex:    pose.RightWrist,
	LeftHipIndex:       pose.LeftHip,
	RightHipIndex:      pose.RightHip,
	LeftKneeIndex:      pose.LeftKnee,
	RightKneeIndex:     pose.RightKnee,
	LeftAnkleIndex:     pose.LeftAnkle,
	RightAnkleIndex:    pose.RightAnkle,
}

// Landmark is one MediaPipe pose landmark.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// FrameFromLandmarks restricts a full MediaPipe landmark list to the 12 scored joints.
// Landmarks beyond the end of the list are left out of the frame.
// A nil or empty list yields a nil frame (no pose).
func FrameFromLandmarks(landmarks []Landmark) pose.Frame {
	if len(landmarks) == 0 {
		return nil
	}

	frame := make(pose.Frame, len(landmarkJoints))
	for idx, joint := range landmarkJoints {
		if idx >= len(landmarks) {
			continue
		}
		lm := landmarks[idx]
		frame[joint] = pose.Point3D{X: lm.X, Y: lm.Y, Z: lm.Z}
	}
	return frame
}
