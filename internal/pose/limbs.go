package pose

// Limb is a directed body segment from a proximal joint to a distal joint.
type Limb struct {
	Name string
	From Joint
	To   Joint
}

// Limbs is the fixed catalog of scored body segments.
var Limbs = [...]Limb{
	{Name: "left_upper_arm", From: LeftShoulder, To: LeftElbow},
	{Name: "left_lower_arm", From: LeftElbow, To: LeftWrist},
	{Name: "right_upper_arm", From: RightShoulder, To: RightElbow},
	{Name: "right_lower_arm", From: RightElbow, To: RightWrist},
	{Name: "left_upper_leg", From: LeftHip, To: LeftKnee},
	{Name: "left_lower_leg", From: LeftKnee, To: LeftAnkle},
	{Name: "right_upper_leg", From: RightHip, To: RightKnee},
	{Name: "right_lower_leg", From: RightKnee, To: RightAnkle},
}

// Vector returns the limb vector To - From in p, or false if either joint is missing.
func (l Limb) Vector(p *Canonical) (Point3D, bool) {
	from, ok := p.Point(l.From)
	if !ok {
		return Point3D{}, false
	}
	to, ok := p.Point(l.To)
	if !ok {
		return Point3D{}, false
	}
	return to.Sub(from), true
}
