// Package inspector publishes render graph events to a remote inspector over
// socket.io: every built timeline, failed build, initialized resource and a
// sample of executed frames.
package inspector
