package main

import (
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"procurement/db"
	"procurement/db/migrations"
	"procurement/internal/handlers"
)

func main() {
	connString := os.Getenv("POSTGRES_CONN")
	if connString == "" {
		log.Fatal("POSTGRES_CONN env variable is not set")
	}

	dbConn, err := sqlx.Connect("postgres", connString)
	if err != nil {
		log.Fatalf("Cannot connect to DB: %v", err)
	}
	defer dbConn.Close()

	migrations.Run()

	store := db.NewStorage(dbConn)
	h := handlers.NewHandler(store)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/ping", h.PingHandler)
		// закупки
		r.Post("/procurements/new", h.CreateProcurementHandler)
		r.Get("/procurements", h.GetProcurementsHandler)
		r.Get("/procurements/{procurementId}", h.GetProcurementHandler)
		r.Delete("/procurements/{procurementId}", h.DeleteProcurementHandler)
		r.Get("/procurements/{procurementId}/versions/{version}", h.GetProcurementVersionHandler)
		// присуждение и проверки
		r.Put("/procurements/{procurementId}/lots/{lotName}/award", h.AwardBidHandler)
		r.Post("/procurements/{procurementId}/validate", h.ValidateProcurementHandler)
		r.Get("/procurements/{procurementId}/report", h.AwardReportHandler)
	})

	serverAddr := os.Getenv("SERVER_ADDRESS")
	if serverAddr == "" {
		serverAddr = "0.0.0.0:8080"
	}

	log.Printf("Starting server on %s", serverAddr)
	log.Fatal(http.ListenAndServe(serverAddr, r))
}
