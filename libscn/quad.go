package libscn

var sharedQuad *GpuMesh

// DrawQuad draws a full screen quad, uploading it on first use.
func DrawQuad() {
	if sharedQuad == nil {
		sharedQuad = Upload(NewScreenQuad())
	}
	sharedQuad.Draw()
}

// DeleteSharedQuad releases the quad used by DrawQuad.
func DeleteSharedQuad() {
	if sharedQuad != nil {
		sharedQuad.Delete()
		sharedQuad = nil
	}
}
