package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ayusman/natya/internal/pose"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a user pose against a reference pose",
	Long: `Score compares two pose files, each a JSON object of joint positions.
With --user-prev and --ref-prev the motion between the frames is scored too.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		ref, _ := cmd.Flags().GetString("ref")
		userPrev, _ := cmd.Flags().GetString("user-prev")
		refPrev, _ := cmd.Flags().GetString("ref-prev")
		beta, _ := cmd.Flags().GetFloat64("beta")

		params := pose.DefaultParams()
		params.Beta = beta
		result, err := scoreFiles(pose.NewScorer(params), user, ref, userPrev, refPrev)
		if err != nil {
			return err
		}
		if !result.Detected {
			fmt.Fprintln(cmd.OutOrStdout(), "no pose")
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%.2f %s\n", result.Score, result.Feedback)
		return nil
	},
}

func init() {
	scoreCmd.Flags().String("user", "", "User pose JSON file")
	scoreCmd.Flags().String("ref", "", "Reference pose JSON file")
	scoreCmd.Flags().String("user-prev", "", "Previous user pose JSON file")
	scoreCmd.Flags().String("ref-prev", "", "Previous reference pose JSON file")
	scoreCmd.Flags().Float64("beta", pose.DefaultParams().Beta, "Weight of the motion term (0-1)")
	scoreCmd.MarkFlagRequired("user")
	scoreCmd.MarkFlagRequired("ref")
}

// scoreFiles scores the poses in the named files. Both previous files must be
// given for a double-frame score. A user pose without hips is not detected;
// a reference without hips is an error.
func scoreFiles(scorer *pose.Scorer, user, ref, userPrev, refPrev string) (pose.Result, error) {
	if (userPrev == "") != (refPrev == "") {
		return pose.Result{}, errors.New("--user-prev and --ref-prev must be given together")
	}

	refNow, err := readPose(ref)
	if err != nil {
		return pose.Result{}, err
	}
	userNow, err := readPose(user)
	if errors.Is(err, pose.ErrMissingAnchorJoint) {
		return pose.NoPose(), nil
	}
	if err != nil {
		return pose.Result{}, err
	}

	if userPrev == "" {
		return pose.Evaluate(scorer.Single(userNow, refNow)), nil
	}

	refBefore, err := readPose(refPrev)
	if err != nil {
		return pose.Result{}, err
	}
	userBefore, err := readPose(userPrev)
	if err != nil {
		return pose.Result{}, err
	}
	return pose.Evaluate(scorer.Double(userNow, userBefore, refNow, refBefore)), nil
}

func readPose(path string) (*pose.Canonical, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pose: %w", err)
	}

	var raw pose.Frame
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	c, err := pose.Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
