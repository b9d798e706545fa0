package thermodo

import "math"

// ntc100k lists the thermistor resistance (normalised to 100 at 25 °C) for
// every degree from MinTemp to MaxTemp. Resistance strictly decreases.
var ntc100k = [...]float32{
	4397.119, 4092.873, 3811.717, 3551.748, 3311.235, 3088.598, 2882.395, 2691.309,
	2514.137, 2349.777, 2197.225, 2055.557, 1923.931, 1801.573, 1687.773, 1581.88,
	1483.099, 1391.113, 1305.412, 1225.53, 1151.036, 1081.535, 1016.661, 956.0796,
	899.4806, 846.5788, 797.111, 750.8341, 707.5237, 666.9723, 628.9882, 593.3421,
	559.9309, 528.6016, 499.2124, 471.6321, 445.7716, 421.4796, 398.6521, 377.1927,
	357.0117, 338.0058, 320.1216, 303.2866, 287.4335, 272.4995, 258.4264, 245.1598,
	232.6491, 220.8471, 209.7098, 199.1962, 189.2681, 179.8896, 171.0275, 162.6506,
	154.7264, 147.2321, 140.142, 133.4322, 127.0802, 121.0658, 115.3684, 109.9695,
	104.8521, 100.0, 95.3981, 91.0322, 86.889, 82.9561, 79.2216, 75.6752,
	72.306, 69.1042, 66.0608, 63.1671, 60.415, 57.7969, 55.3056, 52.9343,
	50.6766, 48.5283, 46.482, 44.5325, 42.6745, 40.9035, 39.2132, 37.601,
	36.0629, 34.5953, 33.1946, 31.8591, 30.5839, 29.366, 28.2026, 27.0909,
	26.0284, 25.0127, 24.0416, 23.1128, 22.2243, 21.3743, 20.5607, 19.782,
	19.0364, 18.3225, 17.6401, 16.9864, 16.36, 15.7596, 15.1841, 14.631,
	14.1006, 13.5918, 13.1037, 12.6354, 12.1871, 11.7567, 11.3436, 10.9468,
	10.5657, 10.1996, 9.8479, 9.5098, 9.1849, 8.8726, 8.5722, 8.2834,
	8.0055, 7.7383, 7.4811, 7.2344, 6.9971, 6.7685, 6.5484, 6.3365,
	6.1316, 5.9341, 5.7439, 5.5606, 5.3839, 5.2143, 5.0507, 4.893,
	4.7409, 4.5942, 4.4527, 4.3161, 4.1843, 4.057, 3.9342, 3.8156,
	3.7011, 3.5905, 3.4836, 3.3804, 3.2812, 3.1853, 3.0926, 3.0031,
	2.9164, 2.8322, 2.7508, 2.672, 2.5958, 2.522,
}

// TemperatureFor interpolates the thermistor table. It returns NaN when the
// resistance is below the smallest tabulated value.
func TemperatureFor(resistance float32) float32 {
	for i := 1; i < len(ntc100k); i++ {
		if ntc100k[i] >= resistance {
			continue
		}

		from, to := ntc100k[i-1], ntc100k[i]
		tempFrom := float32(MinTemp + float64(i-1)*TemperatureInterval)
		tempTo := float32(MinTemp + float64(i)*TemperatureInterval)

		ratio := (resistance - from) / (to - from)
		return (tempTo-tempFrom)*ratio + tempFrom
	}

	return float32(math.NaN())
}
