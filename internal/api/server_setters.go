package api

// SetArchiver enables the snapshot endpoints on the server
func (s *Server) SetArchiver(a Archiver) {
	if s.handlers != nil {
		s.handlers.SetArchiver(a)
	}
}
