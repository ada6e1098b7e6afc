package handlers

import (
	"net/http"

	"fieldly/models"
	"fieldly/services/lifecycle"

	"github.com/gin-gonic/gin"
)

// TierInfo is the static description of a service tier shown during task
// selection.
type TierInfo struct {
	Tier               models.ServiceTier `json:"tier"`
	Name               string             `json:"name"`
	EstimateRange      models.PriceRange  `json:"estimateRange"`
	PriorityMultiplier float64            `json:"priorityMultiplier"`
	ImmediatePayment   bool               `json:"immediatePayment"`
	RequiredConsents   []string           `json:"requiredConsents"`
}

// GetTiers lists the four service tiers with their pricing policy and consent
// requirements.
func GetTiers(c *gin.Context) {
	tiers := make([]TierInfo, 0, 4)
	for t := models.TierGeneral; t <= models.TierEmergency; t++ {
		tiers = append(tiers, TierInfo{
			Tier:               t,
			Name:               t.String(),
			EstimateRange:      lifecycle.EstimateRange(t),
			PriorityMultiplier: lifecycle.PriorityMultiplier(t),
			ImmediatePayment:   lifecycle.IsImmediatePayment(t),
			RequiredConsents:   lifecycle.MissingConsents(t, models.ConsentRecord{}),
		})
	}
	c.JSON(http.StatusOK, gin.H{"tiers": tiers})
}
