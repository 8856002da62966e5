package main

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/profiler"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/pradeepkasula/online-shopping-cart/api"
	"github.com/pradeepkasula/online-shopping-cart/cart"
	"github.com/pradeepkasula/online-shopping-cart/guard"
	"github.com/pradeepkasula/online-shopping-cart/session"
)

const (
	port         = "8080"
	cookieMaxAge = 60 * 60 * 48

	cookiePrefix    = "shop_"
	cookieSessionID = cookiePrefix + "session-id"

	defaultCredentialsFile = ".shopping-session.json"
)

type ctxKeySessionID struct{}

type frontendServer struct {
	sessions  *session.Manager
	cartStore *cart.Store
	client    *api.Client
}

func main() {
	log := logrus.New()
	log.Level = logrus.DebugLevel
	log.Formatter = &logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "severity",
			logrus.FieldKeyMsg:   "message",
		},
		TimestampFormat: time.RFC3339Nano,
	}
	log.Out = os.Stdout

	_ = godotenv.Load()

	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{}, propagation.Baggage{}))

	if os.Getenv("ENABLE_TRACING") == "1" {
		log.Info("Tracing enabled.")
		initTracing(log)
	} else {
		log.Info("Tracing disabled.")
	}

	if os.Getenv("ENABLE_PROFILER") == "1" {
		log.Info("Profiling enabled.")
		go initProfiling(log, "storefront", "1.0.0")
	} else {
		log.Info("Profiling disabled.")
	}

	srvPort := port
	if os.Getenv("PORT") != "" {
		srvPort = os.Getenv("PORT")
	}
	addr := os.Getenv("LISTEN_ADDR")

	apiCfg := api.Config{
		ProductAddr: envOrDefault("PRODUCT_SERVICE_ADDR", "localhost:8081"),
		CartAddr:    envOrDefault("CART_SERVICE_ADDR", "localhost:8082"),
		OrderAddr:   envOrDefault("ORDER_SERVICE_ADDR", "localhost:8083"),
		UserAddr:    envOrDefault("USER_SERVICE_ADDR", "localhost:8084"),
		Log:         log,
	}

	svc := new(frontendServer)
	svc.sessions = session.New(apiCfg, session.Config{
		UserID:          envUserID(log),
		CredentialsPath: envOrDefault("CREDENTIALS_FILE", defaultCredentialsFile),
		Log:             log,
	})
	svc.client = svc.sessions.Client()
	svc.cartStore = cart.New(svc.client, svc.sessions.UserID(), log)

	svc.sessions.Subscribe(func() {
		log.WithField("authenticated", svc.sessions.IsAuthenticated()).Debug("session state changed")
	})
	svc.cartStore.Subscribe(func() {
		log.WithField("cart_size", svc.cartStore.Count()).Debug("cart state changed")
	})

	requireAuth := guard.RequireAuth(svc.sessions.IsAuthenticated, "/login")

	r := mux.NewRouter()
	r.HandleFunc("/", svc.homeHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/products", svc.productsHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/products/{id}", svc.productHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/cart", svc.viewCartHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/cart", svc.addToCartHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/update", svc.updateCartItemHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/remove", svc.removeCartItemHandler).Methods(http.MethodPost)
	r.HandleFunc("/cart/empty", svc.emptyCartHandler).Methods(http.MethodPost)
	r.Handle("/cart/checkout", requireAuth(http.HandlerFunc(svc.placeOrderHandler))).Methods(http.MethodPost)
	r.Handle("/orders", requireAuth(http.HandlerFunc(svc.orderHistoryHandler))).Methods(http.MethodGet, http.MethodHead)
	r.Handle("/orders/{id}", requireAuth(http.HandlerFunc(svc.orderHandler))).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/login", svc.loginPageHandler).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/login", svc.loginSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc("/register", svc.registerSubmitHandler).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", svc.forgotPasswordHandler).Methods(http.MethodPost)
	r.HandleFunc("/change-password", svc.changePasswordHandler).Methods(http.MethodPost)
	r.HandleFunc("/logout", svc.logoutHandler).Methods(http.MethodGet)
	r.Handle("/profile", requireAuth(http.HandlerFunc(svc.profileHandler))).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/robots.txt", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "User-agent: *\nDisallow: /") })
	r.HandleFunc("/_healthz", func(w http.ResponseWriter, _ *http.Request) { fmt.Fprint(w, "ok") })

	var handler http.Handler = r
	handler = &logHandler{log: log, next: handler}      // add logging
	handler = ensureSessionID(handler)                  // add session ID
	handler = otelhttp.NewHandler(handler, "storefront") // add OTel tracing

	log.Infof("starting server on %s:%s", addr, srvPort)
	log.Fatal(http.ListenAndServe(addr+":"+srvPort, handler))
}

func initTracing(log logrus.FieldLogger) *sdktrace.TracerProvider {
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()))
	otel.SetTracerProvider(tp)
	log.Info("Tracing provider initialized (no exporter configured)")
	return tp
}

func initProfiling(log logrus.FieldLogger, service, version string) {
	for i := 1; i <= 3; i++ {
		log = log.WithField("retry", i)
		if err := profiler.Start(profiler.Config{
			Service:        service,
			ServiceVersion: version,
			// ProjectID must be set if not running on GCP.
			// ProjectID: "my-project",
		}); err != nil {
			log.Warnf("warn: failed to start profiler: %+v", err)
		} else {
			log.Info("started Stackdriver profiler")
			return
		}
		d := time.Second * 10 * time.Duration(i)
		log.Debugf("sleeping %v to retry initializing Stackdriver profiler", d)
		time.Sleep(d)
	}
	log.Warn("warning: could not initialize Stackdriver profiler after retrying, giving up")
}

func envOrDefault(envKey, fallback string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return fallback
}

func envUserID(log logrus.FieldLogger) int64 {
	v := os.Getenv("SHOPPER_USER_ID")
	if v == "" {
		return 1
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		log.Warnf("invalid SHOPPER_USER_ID %q, using 1", v)
		return 1
	}
	return id
}
