package main

import (
	"log"
	"os"
	"time"

	"itsm-triage-be/internal/entity"
	"itsm-triage-be/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

func main() {
	// Load Environment Variables
	if err := godotenv.Load(); err != nil {
		log.Println("Info: No .env file found, using system env")
	}

	dsn := os.Getenv("DB_CONNECTION_STRING")
	if dsn == "" {
		log.Fatal("Error: DB_CONNECTION_STRING is not set")
	}

	db, err := database.NewGormDBFromDSN(dsn)
	if err != nil {
		log.Fatal("Error: Failed to connect to database:", err)
	}

	log.Println("Seeding Knowledge Base Articles...")

	// Starter articles covering the common help desk topics. Embeddings are
	// generated through the API flow, not here, so run the rest server and
	// re-save each article (or POST them) to populate kb_embeddings.
	articles := []entity.KbArticle{
		{
			Title:   "VPN keeps disconnecting",
			Source:  "KB0001",
			Content: "If the VPN drops every few minutes: 1) Switch from UDP to TCP in the client settings. 2) Disable power saving on the network adapter. 3) If on wireless, move closer to the access point or switch to a wired connection. 4) Update the VPN client to the latest version from the software portal. If the problem persists after these steps, collect the client logs and open an incident.",
		},
		{
			Title:   "Reset your password with self-service",
			Source:  "KB0002",
			Content: "Account locked out or password expired: open the self-service portal at passwords.example.com, verify with MFA, and choose Reset Password. The new password must be at least 14 characters. Domain sync takes up to 5 minutes; if you still cannot login after 15 minutes, the account may be administratively locked and requires a Security Team incident.",
		},
		{
			Title:   "Outlook stuck on loading profile",
			Source:  "KB0003",
			Content: "When Outlook hangs on the loading profile screen: close Outlook, open Control Panel > Mail > Show Profiles, add a new profile and set it as default. If the new profile also hangs, start Outlook in safe mode (outlook.exe /safe) and disable add-ins. Corrupted OST files can be deleted and will re-sync from the server.",
		},
		{
			Title:   "Printer shows offline",
			Source:  "KB0004",
			Content: "A printer showing offline usually means the spooler lost the connection. Restart the Print Spooler service, power cycle the printer, and verify it has an IP address on the device panel. For shared printers, remove and re-add the printer from the print server path. Hardware faults (paper jam lights, repeated power cycling) should go to the Infrastructure Team.",
		},
	}

	for _, a := range articles {
		// Check if an article with this source already exists
		var existing entity.KbArticle
		if err := db.Where("source = ?", a.Source).First(&existing).Error; err == nil {
			log.Printf("Article '%s' already exists, skipping...", a.Source)
			continue
		}

		a.Id = uuid.New()
		a.CreatedAt = time.Now()
		if err := db.Create(&a).Error; err != nil {
			log.Printf("Error creating article '%s': %v", a.Source, err)
		} else {
			log.Printf("Created article: %s (%s)", a.Title, a.Source)
		}
	}

	log.Println("KB seeding completed!")
}
