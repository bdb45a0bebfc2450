package models

import (
	"log"

	"bitbucket.org/mmdatafocus/clinic_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&Survey{},
		&MedicalReport{},
		&SurveySyncRecord{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
