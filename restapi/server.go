package restapi

import (
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/net/netutil"

	"github.com/dapphub-labs/dapphub/config"
	"github.com/dapphub-labs/dapphub/logging"
	"github.com/dapphub-labs/dapphub/models"
	"github.com/dapphub-labs/dapphub/service"
)

// Registrar is the write-side surface the API exposes for bulk registration.
type Registrar interface {
	SubmitJob(items []models.RegistrationItem) (string, error)
	GetProgress(jobID string) (*models.JobProgress, error)
	GetResults(jobID string) ([]*models.RegistrationResult, error)
}

// Deleter schedules and cancels delayed dapp deletions.
type Deleter interface {
	ScheduleDelete(dappID string) (time.Time, error)
	Cancel(dappID string) bool
}

type Server struct {
	registryService service.Registry
	reviewService   service.Reviews
	commentService  service.Comments
	trendingService service.Trending
	registrar       Registrar
	deleter         Deleter
	config          *config.Config
	httpServer      *http.Server
}

func NewServer(
	registryService service.Registry,
	reviewService service.Reviews,
	commentService service.Comments,
	trendingService service.Trending,
	registrar Registrar,
	deleter Deleter,
	cfg *config.Config,
) *Server {
	return &Server{
		registryService: registryService,
		reviewService:   reviewService,
		commentService:  commentService,
		trendingService: trendingService,
		registrar:       registrar,
		deleter:         deleter,
		config:          cfg,
	}
}

func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Path("/dapps").Methods(http.MethodGet).HandlerFunc(s.handleListDapps)
	v1.Path("/dapps/{ref}").Methods(http.MethodGet).HandlerFunc(s.handleGetDapp)
	v1.Path("/dapps/{id}/reviews").Methods(http.MethodGet).HandlerFunc(s.handleListReviews)
	v1.Path("/dapps/{id}/comments").Methods(http.MethodGet).HandlerFunc(s.handleListComments)
	v1.Path("/dapps/{id}").Methods(http.MethodDelete).HandlerFunc(s.handleDeleteDapp)
	v1.Path("/dapps/{id}/restore").Methods(http.MethodPost).HandlerFunc(s.handleRestoreDapp)
	v1.Path("/trending").Methods(http.MethodGet).HandlerFunc(s.handleListTrending)
	v1.Path("/registrations").Methods(http.MethodPost).HandlerFunc(s.handleSubmitRegistrations)
	v1.Path("/registrations/{jobID}").Methods(http.MethodGet).HandlerFunc(s.handleGetRegistrationJob)
	return router
}

// Start serves the API in the background, capping concurrent connections when
// configured.
func (s *Server) Start() {
	go s.serve()
}

func (s *Server) serve() {
	addr := s.config.ServerConfig.GetListenAddr()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		panic(err)
	}
	if maxConns := s.config.ServerConfig.MaxConns; maxConns > 0 {
		listener = netutil.LimitListener(listener, maxConns)
	}
	s.httpServer = &http.Server{
		Addr:    addr,
		Handler: s.Router(),
	}
	logging.Logger.Infof("serving api at %s", addr)
	if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
		panic(err)
	}
}
