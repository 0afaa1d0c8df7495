package server

// Option augments how the transport server is constructed.
type Option func(*Server)

// WithPort sets the public listen port. The default is 3001.
func WithPort(port string) Option {
	return func(s *Server) {
		s.port = port
	}
}

// WithMoveSpeed sets the distance a single movement intent travels along each
// axis before clamping.
func WithMoveSpeed(speed float64) Option {
	return func(s *Server) {
		s.moveSpeed = speed
	}
}

// WithStartSize sets the size assigned to newly connected players.
func WithStartSize(size float64) Option {
	return func(s *Server) {
		s.startSize = size
	}
}
