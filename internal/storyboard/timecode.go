package storyboard

import "fmt"

// SceneSeconds is the fixed screen time represented by one scene.
const SceneSeconds = 10

// Timecode formats the start offset of the scene at index as MM:SS using the
// standard ten-second scene length.
func Timecode(index int) string {
	return TimecodeFor(index, SceneSeconds)
}

// TimecodeFor formats the start offset of the scene at index for a custom
// scene length. Minutes are not wrapped into hours.
func TimecodeFor(index, sceneSeconds int) string {
	if sceneSeconds <= 0 {
		sceneSeconds = SceneSeconds
	}
	if index < 0 {
		index = 0
	}
	total := index * sceneSeconds
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}
