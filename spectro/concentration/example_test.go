package concentration_test

import (
	"fmt"

	"github.com/cwbudde/algo-atmos/spectro/absorbance"
	"github.com/cwbudde/algo-atmos/spectro/concentration"
	"github.com/cwbudde/algo-atmos/spectro/lines"
)

func ExampleEstimateConcentrations() {
	db, _ := lines.NewDatabase(lines.AbsorptionLine{
		Molecule: "O2", CenterWavelength: 760, LineStrength: 1.2, LineWidth: 2,
	})

	var spec absorbance.Spectrum
	for wl := 755.0; wl <= 765; wl += 0.5 {
		spec = append(spec, absorbance.Sample{Wavelength: wl, Absorbance: 0.6})
	}

	est, err := concentration.EstimateConcentrations(spec, db, 10)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("%s %.3f mol/L (%s)\n", est[0].Molecule, est[0].ConcentrationPPM, est[0].Flags)

	// Output:
	// O2 0.050 mol/L (uncalibrated)
}
