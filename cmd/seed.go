package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"soundscape/config"
	"soundscape/db"
	"soundscape/model"
	"soundscape/store/mongostore"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert sample sound documents",
	Long:  `Insert a set of Colombian soundscape samples for development and demos, creating indexes first.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		client, database, err := db.ConnectMongo(ctx, cfg)
		if err != nil {
			log.Fatalf("failed to connect to MongoDB: %v", err)
		}
		defer db.DisconnectMongo(context.Background(), client)

		soundStore := mongostore.New(database, cfg.SoundCollection)
		if err := soundStore.EnsureIndexes(ctx); err != nil {
			log.Fatalf("failed to create indexes: %v", err)
		}

		for i, sample := range sampleSounds() {
			// Spread creation dates over the past weeks so the timeline has
			// something to show.
			sample.CreatedAt = time.Now().UTC().AddDate(0, 0, -i*2)
			id, err := soundStore.Insert(ctx, sample)
			if err != nil {
				log.Fatalf("failed to insert %q: %v", sample.Name, err)
			}
			fmt.Printf("inserted %s (%s)\n", sample.Name, id)
		}
		fmt.Println("seed data inserted")
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

func sampleSounds() []*model.SoundDocument {
	return []*model.SoundDocument{
		{
			Name:            "Amanecer en la selva amazónica",
			Description:     "Sonidos matutinos de la selva con cantos de pájaros y el río al fondo",
			Author:          "Carlos Natura",
			Location:        model.NewGeoPoint(-69.2167, -4.2158),
			SoundTypes:      []string{"naturaleza", "pájaros", "agua", "bosque"},
			Emotions:        []string{"relajante", "peaceful", "inspirador"},
			Tags:            []string{"biodiversidad", "naturaleza", "meditación"},
			AudioURL:        "/audio/samples/amazon_dawn.mp3",
			DurationSeconds: 180,
			AudioQuality:    model.QualityHigh,
		},
		{
			Name:            "Lluvia en Bogotá",
			Description:     "Lluvia suave cayendo en el centro de Bogotá durante la tarde",
			Author:          "María Rodríguez",
			Location:        model.NewGeoPoint(-74.0721, 4.7110),
			SoundTypes:      []string{"lluvia", "ciudad"},
			Emotions:        []string{"melancólico", "nostálgico", "relajante"},
			Tags:            []string{"clima", "ciudad", "relajación"},
			AudioURL:        "/audio/samples/bogota_rain.mp3",
			DurationSeconds: 240,
			AudioQuality:    model.QualityMedium,
		},
		{
			Name:            "Olas del Caribe en Cartagena",
			Description:     "Sonido relajante de las olas rompiendo en las playas de Cartagena",
			Author:          "José Marinero",
			Location:        model.NewGeoPoint(-75.5518, 10.3997),
			SoundTypes:      []string{"océano", "agua", "naturaleza"},
			Emotions:        []string{"relajante", "peaceful", "romántico"},
			Tags:            []string{"playa", "turismo", "relajación", "bienestar"},
			AudioURL:        "/audio/samples/cartagena_waves.mp3",
			DurationSeconds: 300,
			AudioQuality:    model.QualityHigh,
		},
		{
			Name:            "Café matutino en Zona Rosa",
			Description:     "Ambiente de una cafetería en la Zona Rosa de Bogotá durante la mañana",
			Author:          "Ana Cafetera",
			Location:        model.NewGeoPoint(-74.0525, 4.6694),
			SoundTypes:      []string{"ciudad", "multitud", "música"},
			Emotions:        []string{"energético", "inspirador", "alegre"},
			Tags:            []string{"trabajo", "café", "social", "productividad"},
			AudioURL:        "/audio/samples/cafe_morning.mp3",
			DurationSeconds: 420,
			AudioQuality:    model.QualityMedium,
		},
		{
			Name:            "Viento en los páramos de Chingaza",
			Description:     "Viento suave atravesando la vegetación del páramo en el Parque Chingaza",
			Author:          "Miguel Montañero",
			Location:        model.NewGeoPoint(-73.8000, 4.5167),
			SoundTypes:      []string{"viento", "naturaleza"},
			Emotions:        []string{"misterioso", "meditativo", "peaceful"},
			Tags:            []string{"páramo", "naturaleza", "meditación", "biodiversidad"},
			AudioURL:        "/audio/samples/chingaza_wind.mp3",
			DurationSeconds: 360,
			AudioQuality:    model.QualityHigh,
		},
		{
			Name:            "Mercado de Paloquemao",
			Description:     "Bullicio matutino del mercado de frutas y verduras más grande de Bogotá",
			Author:          "Laura Marketera",
			Location:        model.NewGeoPoint(-74.1200, 4.6400),
			SoundTypes:      []string{"multitud", "ciudad", "tráfico"},
			Emotions:        []string{"energético", "caótico", "alegre"},
			Tags:            []string{"mercado", "comercio", "cultura"},
			AudioURL:        "/audio/samples/paloquemao_market.mp3",
			DurationSeconds: 280,
			AudioQuality:    model.QualityMedium,
		},
		{
			Name:            "Tráfico en la Avenida Caracas",
			Description:     "Hora pico en una de las avenidas más transitadas de Bogotá",
			Author:          "Pedro Urbano",
			Location:        model.NewGeoPoint(-74.0817, 4.6097),
			SoundTypes:      []string{"tráfico", "ciudad"},
			Emotions:        []string{"caótico", "estresante"},
			Tags:            []string{"transporte", "ciudad", "ruido"},
			AudioURL:        "/audio/samples/caracas_traffic.mp3",
			DurationSeconds: 150,
			AudioQuality:    model.QualityLow,
		},
		{
			Name:            "Campanas de la Catedral de Sal",
			Description:     "Resonancia de campanas dentro de la catedral subterránea de Zipaquirá",
			Author:          "Sofía Peregrina",
			Location:        model.NewGeoPoint(-74.0047, 5.0186),
			SoundTypes:      []string{"campanas", "eco"},
			Emotions:        []string{"misterioso", "espiritual", "peaceful"},
			Tags:            []string{"turismo", "cultura", "meditación"},
			AudioURL:        "/audio/samples/zipaquira_bells.mp3",
			DurationSeconds: 200,
			AudioQuality:    model.QualityProfessional,
		},
	}
}
