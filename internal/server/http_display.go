package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo() {
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

func (s *Server) displayEndpoints() {
	fmt.Println("Available endpoints:")
	fmt.Println("  GET    /health                        - Health check")
	fmt.Println("  GET    /stats                         - Server statistics")
	fmt.Println("  POST   /analyze                       - ATS score card for a resume")
	fmt.Println("  POST   /match                         - Score a resume against a job")
	fmt.Println("  GET    /analyses/{id}                 - Stored analysis")
	fmt.Println("  GET    /resumes/{resumeId}/analyses   - Analysis history")
	fmt.Println("  POST   /jobs, GET /jobs               - Save or list job postings")
	fmt.Println("  GET    /jobs/{id}, DELETE /jobs/{id}  - Fetch or remove a job posting")
	if s.Observability.PrometheusHandler() != nil {
		fmt.Printf("  GET    %-31s - Prometheus metrics\n", s.Observability.PrometheusEndpoint())
	}
}

func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Printf("API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Println("Include 'X-API-Key: <your-key>' header in requests to scoring and job endpoints")
	} else {
		fmt.Println("API authentication: DISABLED (no API keys configured)")
		fmt.Println("WARNING: API endpoints are publicly accessible!")
	}
}

func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Printf("Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Println("Request size limit: DISABLED")
	}
}

func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Println("  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Println("  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Println("Rate limiting: DISABLED")
	}
}
