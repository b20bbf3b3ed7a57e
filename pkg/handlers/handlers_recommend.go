package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/arnavshah/store-scheduler-api/internal/metrics"
	"github.com/arnavshah/store-scheduler-api/pkg/database"
	"github.com/arnavshah/store-scheduler-api/pkg/models"
	"github.com/arnavshah/store-scheduler-api/pkg/recommend"
	"github.com/gin-gonic/gin"
)

// storeParameters returns the recommendation parameters configured for a store
func storeParameters(s *database.Store) models.RecommendationParameters {
	params := recommend.DefaultParameters()
	if s.DesiredAttention > 0 {
		params.DesiredAttention = s.DesiredAttention
	}
	params.GrowthFactor = s.GrowthFactor
	params.OpeningTime = s.OpeningTime
	params.ClosingTime = s.ClosingTime
	return params
}

// queryParameters overrides the store parameters with the query string.
// Values present but empty or malformed are rejected.
func queryParameters(c *gin.Context, params models.RecommendationParameters) (models.RecommendationParameters, error) {
	if raw, ok := c.GetQuery("atencion"); ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, errors.New("atencion must be a number")
		}
		params.DesiredAttention = v
	}
	if raw, ok := c.GetQuery("crecimiento"); ok {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return params, errors.New("crecimiento must be a number")
		}
		params.GrowthFactor = v
	}
	if raw, ok := c.GetQuery("redondear"); ok {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return params, errors.New("redondear must be true or false")
		}
		params.RoundToInteger = v
	}
	return params, nil
}

// Recommendations computes the hourly staffing of a store from the traffic
// of a date range. Without a range the last seven days are used.
func (h *Handler) Recommendations(c *gin.Context) {
	s, ok := h.store(c, c.Param("code"))
	if !ok {
		return
	}

	end, err := parseDate(c.Query("end"), today().AddDate(0, 0, -1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	start, err := parseDate(c.Query("start"), end.AddDate(0, 0, -6))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := recommend.ValidateRange(start, end); err != nil {
		metrics.RecommendationErrors.WithLabelValues("date_range").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params, err := queryParameters(c, storeParameters(s))
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues("parameter").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	samples, err := h.Traffic.Samples(c.Request.Context(), s.Code, start, end)
	if err != nil {
		metrics.RecommendationErrors.WithLabelValues("traffic").Inc()
		h.Logger.Error("fetching traffic", "store", s.Code, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not fetch traffic data"})
		return
	}

	res, err := recommend.Compute(samples, params)
	switch {
	case errors.Is(err, recommend.ErrNoData):
		metrics.RecommendationErrors.WithLabelValues("no_data").Inc()
		c.JSON(http.StatusNotFound, gin.H{"error": "No traffic data for " + s.Code + " in the requested range"})
		return
	case errors.Is(err, recommend.ErrInvalidParameter):
		metrics.RecommendationErrors.WithLabelValues("parameter").Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	metrics.RecommendationsComputed.WithLabelValues(s.Code).Inc()
	c.JSON(http.StatusOK, recommendationResponse(s, start, end, res))
}

func recommendationResponse(s *database.Store, start, end time.Time, res *recommend.Result) gin.H {
	hours := gin.H{}
	for _, hour := range res.Hours() {
		rec := res.Recommendations[hour]
		hours[hour] = gin.H{
			"entradas":      rec.Entries,
			"recomendacion": recommend.Round2(rec.Recommendation),
			"detalles": gin.H{
				"calculoCompleto": rec.Formula,
			},
		}
	}

	p := res.Parameters
	return gin.H{
		"tienda": gin.H{
			"codigo": s.Code,
			"nombre": s.Name,
			"pais":   s.Country,
		},
		"parametros": gin.H{
			"fechaInicio":       start.Format(dateLayout),
			"fechaFin":          end.Format(dateLayout),
			"atencionDeseada":   p.DesiredAttention,
			"factorCrecimiento": p.GrowthFactor,
			"horaApertura":      p.OpeningTime,
			"horaCierre":        p.ClosingTime,
			"redondear":         p.RoundToInteger,
		},
		"recomendaciones": hours,
	}
}
