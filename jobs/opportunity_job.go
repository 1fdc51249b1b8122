package jobs

import (
	"log"
	"time"

	"github.com/jkamau717/farm_connect/database"
	"github.com/jkamau717/farm_connect/models"
)

// CloseExpiredOpportunities marks open opportunities past their end date as
// closed. Closed opportunities drop out of default thread listings; cached
// reads catch up within the cache TTL.
func CloseExpiredOpportunities() {
	log.Println("Running job: CloseExpiredOpportunities...")

	now := time.Now()

	result := database.DB.
		Model(&models.Opportunity{}).
		Where("status = ? AND end_date IS NOT NULL AND end_date < ?", models.OpportunityStatusOpen, now).
		Update("status", models.OpportunityStatusClosed)

	if result.Error != nil {
		log.Printf("Error closing expired opportunities: %v", result.Error)
		return
	}

	if result.RowsAffected == 0 {
		log.Println("No expired opportunities found.")
		return
	}

	log.Printf("Closed %d expired opportunity(ies).", result.RowsAffected)
}
