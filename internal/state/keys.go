package state

// Canonical store keys. The store enforces no schema; these constants are
// the naming convention shared by the capture, transport, display and
// indicator workers. Configuration values are seeded under a "config."
// prefix at startup.
const (
	// Written by the capture worker.
	KeyLatestFrame = "latest_frame"
	KeyDetections  = "detections"
	KeyLocalPeople = "local_people"

	// Written by the subscriber worker.
	KeyRemoteFrame      = "remote_frame"
	KeyRemoteDetections = "remote_detections"
	KeyRemotePeople     = "remote_people"
	KeyLastRemoteAt     = "last_remote_frame_at"
	KeyConnected        = "connected"

	// View selection: true renders the local feed, false the remote one.
	// Flipped by the subscriber on traffic and by the watchdog on silence.
	KeyDisplayLocal = "display_local"

	// Configuration keys read by the capture worker.
	KeyConfigFPS             = "config.fps"
	KeyConfigDetectThreshold = "config.detect_threshold"
	KeyConfigMaxDetections   = "config.max_detections"
)
