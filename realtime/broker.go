package realtime

// Publisher fans an event out to every session currently subscribed to the
// group's topic. Fire-and-forget: publishing to a topic with no subscribers
// is normal and never an error. Implemented by the socket.io transport in
// production and by Bus/test fakes elsewhere.
type Publisher interface {
	Publish(groupID, event string, payload interface{})
}
