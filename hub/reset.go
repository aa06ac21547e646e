package hub

// ResetProcess clears the process hub's registries and init flag and
// discards the singleton, so the next Get builds a fresh hub. Intended
// to be called from the coordinated reset sequence (fdtest), which
// brackets it with the in-reset flag; calling it bare mid-flight loses
// registrations without suppressing enrichment.
func ResetProcess() {
	processOnce.Lock()
	h := processHub
	processOnce.Unlock()

	if h != nil {
		h.Clear("")
		h.resetInit()
	}
	resetProcessHub()
}
